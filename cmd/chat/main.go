package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saferoom/chat-client/internal/config"
	"github.com/saferoom/chat-client/internal/identity"
	"github.com/saferoom/chat-client/internal/session"
	"github.com/saferoom/chat-client/internal/transport"
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal client for the room chat server",
	RunE:  runChat,
}

var (
	flagServerURL string
	flagHTTPURL   string
	flagUsername  string
	flagRoom      string
	flagRoomsFile string
	flagListRooms bool
	flagVerbose   bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "server-url", "", "websocket endpoint of the room server")
	flags.StringVar(&flagHTTPURL, "http-url", "", "base URL for the pre-join identity check")
	flags.StringVar(&flagUsername, "username", "", "display name to join under")
	flags.StringVar(&flagRoom, "room", "", "room code to join (see --list-rooms)")
	flags.StringVar(&flagRoomsFile, "rooms-file", "", "yaml room catalog replacing the built-in one")
	flags.BoolVar(&flagListRooms, "list-rooms", false, "print the room catalog and exit")
	flags.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute chat command")
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	level := zerolog.WarnLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg := config.FromEnv()
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagHTTPURL != "" {
		cfg.HTTPURL = flagHTTPURL
	}
	if flagRoomsFile != "" {
		cfg.RoomsFile = flagRoomsFile
	}

	catalog := identity.DefaultCatalog()
	if cfg.RoomsFile != "" {
		loaded, err := identity.LoadCatalog(cfg.RoomsFile)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	if flagListRooms {
		for _, cat := range catalog.Categories {
			fmt.Printf("%s\n", cat.Name)
			for _, room := range cat.Rooms {
				fmt.Printf("  %-20s %s\n", room.Name, room.Code)
			}
		}
		return nil
	}

	id := identity.Identity{Username: flagUsername, RoomCode: flagRoom}
	if !id.Valid() {
		return fmt.Errorf("--username and --room are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accepted, reason, err := identity.NewValidator(cfg.HTTPURL).Check(ctx, id)
	if err != nil {
		return fmt.Errorf("identity check failed: %w", err)
	}
	if !accepted {
		return fmt.Errorf("identity rejected: %s", reason)
	}

	store := identity.NewMemoryStore()
	store.Save(id)

	engine := session.New(session.Options{
		Identity: id,
		Store:    store,
		Conn: transport.New(transport.Config{
			URL:              cfg.ServerURL,
			MaxAttempts:      cfg.MaxAttempts,
			BaseDelay:        cfg.BaseDelay,
			MaxDelay:         cfg.MaxDelay,
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadLimit:        cfg.ReadLimit,
			Logger:           logger,
		}),
		Logger:            logger,
		ToastTTL:          cfg.ToastTTL,
		HeartbeatInterval: cfg.HeartbeatInterval,
		MaxImageBytes:     cfg.MaxImageBytes,
	})
	engine.Start()
	defer engine.Close()

	go renderEvents(engine)

	fmt.Printf("Joining room %s as %s. Commands: /image <path>, /view <n>, /close, /who, /focus, /blur, /quit\n",
		id.RoomCode, id.Username)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-engine.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(engine, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func handleLine(engine *session.Engine, line string) (quit bool) {
	switch {
	case line == "":
	case line == "/quit":
		return true
	case line == "/focus":
		engine.SetFocused(true)
	case line == "/blur":
		engine.SetFocused(false)
	case line == "/who":
		for _, entry := range engine.Presence() {
			fmt.Printf("  %s is %s\n", entry.Username, entry.Status)
		}
	case line == "/close":
		engine.Viewer().Close()
	case strings.HasPrefix(line, "/image "):
		engine.SendImage(strings.TrimSpace(strings.TrimPrefix(line, "/image ")))
	case strings.HasPrefix(line, "/view "):
		viewMessage(engine, strings.TrimSpace(strings.TrimPrefix(line, "/view ")))
	default:
		engine.SendText(line)
	}
	return false
}

func viewMessage(engine *session.Engine, arg string) {
	n, err := strconv.Atoi(arg)
	messages := engine.Messages()
	if err != nil || n < 1 || n > len(messages) {
		fmt.Printf("usage: /view <1..%d>\n", len(messages))
		return
	}
	handle, err := engine.OpenImage(messages[n-1])
	if err != nil {
		fmt.Printf("cannot view: %v\n", err)
		return
	}
	fmt.Printf("viewing %s (%d chars of data URL)\n", handle.Caption(), len(handle.URL()))
}

func renderEvents(engine *session.Engine) {
	for {
		select {
		case <-engine.Done():
			return
		case ev := <-engine.Events():
			switch ev := ev.(type) {
			case session.MessageAppended:
				msg := ev.Message
				if msg.Kind == session.KindImage {
					fmt.Printf("[%s • %s] sent an image: %s (/view %d)\n",
						msg.Sender, msg.DisplayTime(), msg.Image.Filename, len(engine.Messages()))
				} else {
					fmt.Printf("[%s • %s] %s\n", msg.Sender, msg.DisplayTime(), msg.Body)
				}
			case session.ToastShown:
				fmt.Printf("*** %s ***\n", ev.Toast.Text)
			case session.Notice:
				fmt.Printf("!!! %s\n", ev.Text)
			case session.RedirectToStart:
				fmt.Printf("returning to start: %s\n", ev.Reason)
			case session.ConnectionStateChanged:
				log.Debug().Stringer("state", ev.State).Msg("connection")
			}
		}
	}
}
