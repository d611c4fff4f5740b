package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/pokeprotocol/pokeprotocol/internal/eventlog"
	"github.com/pokeprotocol/pokeprotocol/internal/plog"
	"github.com/pokeprotocol/pokeprotocol/internal/reliability"
	"github.com/pokeprotocol/pokeprotocol/internal/session"
	"github.com/pokeprotocol/pokeprotocol/internal/transport"
)

// errUserQuit signals a clean, user-initiated disconnect rather than a
// protocol fault, so the event loop exits quietly instead of reporting it
// as a lost connection.
var errUserQuit = errors.New("session closed by user")

// main dispatches to the host/join subcommands, grounded on the teacher's
// cmd/tcgx-cli/main.go two-verb layout.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error
	switch cmd {
	case "host":
		err = runHost(os.Args[2:])
	case "join":
		err = runJoin(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  pokeproto host [--pokemon NAME] [--listen ADDR] [--pokedex FILE] [--peer-id ID]")
	fmt.Println("  pokeproto join [--pokemon NAME] [--addr ADDR] [--listen ADDR] [--pokedex FILE] [--peer-id ID]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Wait for a joiner and issue the shared battle seed")
	fmt.Println("  join    Connect to a hosting peer's address")
	fmt.Println()
	fmt.Println("In-battle input: a move name to attack, \"/chat <text>\" to send a")
	fmt.Println("chat message, or \"/quit\" to disconnect.")
}

func runHost(args []string) error {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	pokemon := fs.String("pokemon", "Pikachu", "your Pokémon for this battle")
	listen := fs.String("listen", ":7777", "UDP address to listen on")
	pokedex := fs.String("pokedex", defaultPokedexPath(), "path to a pokedex YAML file")
	peerID := fs.String("peer-id", "", "this peer's identifier (default: a generated UUID)")
	verbose := fs.Bool("verbose", false, "log internal phase transitions")
	fs.Parse(args)

	return run(session.RoleHost, *pokemon, "", *listen, *pokedex, *peerID, *verbose)
}

func runJoin(args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	pokemon := fs.String("pokemon", "Bulbasaur", "your Pokémon for this battle")
	addr := fs.String("addr", "localhost:7777", "hosting peer's UDP address")
	listen := fs.String("listen", ":0", "UDP address to listen on (0 for an ephemeral port)")
	pokedex := fs.String("pokedex", defaultPokedexPath(), "path to a pokedex YAML file")
	peerID := fs.String("peer-id", "", "this peer's identifier (default: a generated UUID)")
	verbose := fs.Bool("verbose", false, "log internal phase transitions")
	fs.Parse(args)

	return run(session.RoleJoiner, *pokemon, *addr, *listen, *pokedex, *peerID, *verbose)
}

func defaultPokedexPath() string {
	if wd, err := os.Getwd(); err == nil {
		if _, err := os.Stat(wd + "/pokedex.yaml"); err == nil {
			return wd + "/pokedex.yaml"
		}
	}
	return "pokedex.yaml"
}

func run(role session.Role, pokemon, opponentAddr, listenAddr, pokedexPath, peerID string, verbose bool) error {
	repo, err := loadRepository(pokedexPath)
	if err != nil {
		return err
	}

	if peerID == "" {
		peerID = uuid.NewString()
	}

	tr, err := transport.Listen(listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer tr.Close()
	fmt.Printf("Listening on %s as %s (%s, playing %s)\n", tr.LocalAddr(), peerID, role, pokemon)

	events := eventlog.NewTextLogger(os.Stdout)
	logger := plog.New("session", peerID, os.Stderr)
	if !verbose {
		logger = plog.Nop()
	}

	sess, err := session.New(session.Config{
		PeerID:       peerID,
		Role:         role,
		LocalPokemon: pokemon,
		OpponentAddr: opponentAddr,
		Repository:   repo,
		Transport:    tr,
		Clock:        reliability.RealClock(),
		Logger:       logger,
		EventLogger:  events,
		Verbose:      verbose,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if err := sess.Begin(); err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	return driveEventLoop(sess, tr)
}

// driveEventLoop is PokeProtocol's single-threaded core: one select loop
// services inbound datagrams, timer expirations, and local user input in
// arrival order (spec.md §5), calling into the session sequentially so no
// two frames are ever processed concurrently.
func driveEventLoop(sess *session.Session, tr *transport.UDPTransport) error {
	input := make(chan string)
	go readStdinLoop(input)

	seen := 0
	printNew := func() {
		events := sess.Events()
		for _, e := range events[seen:] {
			renderEvent(e)
		}
		seen = len(events)
		if sess.Phase() == session.WaitingForMove {
			renderStatus(sess)
			fmt.Print("> ")
		}
	}

	for {
		var loopErr error
		select {
		case dg, ok := <-tr.Inbound():
			if !ok {
				return nil
			}
			loopErr = sess.HandleDatagramFrom(dg.Src, dg.Payload)

		case seq := <-sess.TimerFired():
			loopErr = sess.HandleTimerFired(seq)

		case line, ok := <-input:
			if !ok {
				return nil
			}
			loopErr = handleLocalInput(sess, line)
		}

		if loopErr != nil {
			printNew()
			if errors.Is(loopErr, errUserQuit) {
				return nil
			}
			return handleFatal(loopErr)
		}
		printNew()
		if sess.Phase() == session.GameOverPhase {
			return nil
		}
	}
}

func handleLocalInput(sess *session.Session, line string) error {
	switch {
	case line == "/quit":
		sess.Close()
		return errUserQuit
	case strings.HasPrefix(line, "/chat "):
		return sess.SendChat(strings.TrimPrefix(line, "/chat "))
	default:
		if err := sess.SubmitMove(line); err != nil {
			fmt.Println("cannot use that move:", err)
		}
		return nil
	}
}

func handleFatal(err error) error {
	fmt.Println("connection lost:", err)
	return err
}

func readStdinLoop(out chan<- string) {
	defer close(out)
	reader := newStdinReader()
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			out <- line
		}
		if err != nil {
			return
		}
	}
}
