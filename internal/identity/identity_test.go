package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/saferoom/chat-client/internal/identity"
)

func TestIdentity_Valid(t *testing.T) {
	tests := []struct {
		name string
		id   identity.Identity
		want bool
	}{
		{"both set", identity.Identity{Username: "ana", RoomCode: "-1001"}, true},
		{"missing username", identity.Identity{RoomCode: "-1001"}, false},
		{"missing room", identity.Identity{Username: "ana"}, false},
		{"empty", identity.Identity{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryStore_SingleSlot(t *testing.T) {
	store := identity.NewMemoryStore()

	if _, ok := store.Load(); ok {
		t.Error("expected empty store before Save")
	}

	store.Save(identity.Identity{Username: "ana", RoomCode: "-1001"})
	store.Save(identity.Identity{Username: "ben", RoomCode: "-2001"})

	id, ok := store.Load()
	if !ok {
		t.Fatal("expected stored identity after Save")
	}
	if id.Username != "ben" || id.RoomCode != "-2001" {
		t.Errorf("expected last saved identity, got %+v", id)
	}

	store.Clear()
	if _, ok := store.Load(); ok {
		t.Error("expected empty store after Clear")
	}

	// Clearing an empty slot is a no-op.
	store.Clear()
}

func TestValidator_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/check_username" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req struct {
			Username     string `json:"username"`
			SecurityCode string `json:"security_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		if req.Username == "taken" {
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Username already in use"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	validator := identity.NewValidator(server.URL)

	accepted, reason, err := validator.Check(context.Background(), identity.Identity{Username: "ana", RoomCode: "-1001"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !accepted || reason != "" {
		t.Errorf("expected acceptance, got accepted=%v reason=%q", accepted, reason)
	}

	accepted, reason, err = validator.Check(context.Background(), identity.Identity{Username: "taken", RoomCode: "-1001"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if accepted {
		t.Error("expected rejection for taken username")
	}
	if reason != "Username already in use" {
		t.Errorf("expected server reason, got %q", reason)
	}
}

func TestValidator_RequestError(t *testing.T) {
	validator := identity.NewValidator("http://127.0.0.1:1")

	_, _, err := validator.Check(context.Background(), identity.Identity{Username: "ana", RoomCode: "-1001"})
	if err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.yaml")
	content := `categories:
  - name: Testing
    rooms:
      - name: Alpha
        code: "-9001"
      - name: Beta
        code: "-9002"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rooms file: %v", err)
	}

	catalog, err := identity.LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	rooms := catalog.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "Alpha" || rooms[0].Code != "-9001" {
		t.Errorf("unexpected first room: %+v", rooms[0])
	}
}

func TestDefaultCatalog(t *testing.T) {
	rooms := identity.DefaultCatalog().Rooms()
	if len(rooms) == 0 {
		t.Fatal("expected non-empty default catalog")
	}

	codes := make(map[string]bool)
	for _, room := range rooms {
		if room.Code == "" || room.Name == "" {
			t.Errorf("room with empty field: %+v", room)
		}
		if codes[room.Code] {
			t.Errorf("duplicate room code %q", room.Code)
		}
		codes[room.Code] = true
	}
}
