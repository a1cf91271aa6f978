package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.dedis.ch/chord/codec"
	"go.dedis.ch/chord/overlay"
	"go.dedis.ch/chord/overlay/impl"
	"go.dedis.ch/chord/sink"
)

// console bundles the live overlay with the counter sink observing it.
type console struct {
	ov       overlay.Overlay
	counters *sink.Counters
}

// UserInterface provides the command line interface of the program
func UserInterface() {
	color.HiYellow("================================================\n" +
		"=======  Chord DHT simulator             =======\n" +
		"=======  put / get / join / leave        =======\n" +
		"================================================\n")

	for {
		c := preCreate()
		if c == nil {
			return
		}
		if !postCreate(c) {
			return
		}
	}
}

// newConsole builds an overlay with the counter and logging sinks attached.
func newConsole(conf overlay.Configuration) (*console, error) {
	counters := sink.NewCounters()
	logging := sink.NewLogging(zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("module", "sink").Logger())
	conf.Sink = sink.NewMulti(counters, logging)

	ov, err := impl.NewOverlay(conf)
	if err != nil {
		return nil, err
	}
	return &console{ov: ov, counters: counters}, nil
}

// preCreate is the actions allowed before an overlay exists: build a fresh
// ring, load one from a snapshot file, or exit. It returns nil on exit.
func preCreate() *console {
	prompt := &survey.Select{
		Message: "What do you want to do ?",
		Options: []string{
			"🪐 create a new overlay",
			"📂 load an overlay from a snapshot file",
			"👋 exit"},
	}

	var action string
	for {
		err := survey.AskOne(prompt, &action)
		if err != nil {
			fmt.Println(err)
			return nil
		}

		switch action {
		case "🪐 create a new overlay":
			c, err := createOverlay()
			if err != nil {
				log.Fatalf("failed to create overlay: %v", err)
			}
			return c

		case "📂 load an overlay from a snapshot file":
			c, err := loadOverlay()
			if err != nil {
				// A bad file is not fatal, just report and re-prompt
				color.HiRed("=======  %v", err)
				continue
			}
			return c

		case "👋 exit":
			color.HiYellow("=======  Bye 👋")
			return nil
		}
	}
}

// postCreate is the actions allowed on a live overlay. It returns false when
// the user exits the program, true when the overlay is dropped and the user
// goes back to the creation menu.
func postCreate(c *console) bool {
	prompt := &survey.Select{
		Message: "What do you want to do ?",
		Options: []string{
			"⌨️ run a command (put / get / del / insert / remove)",
			"🪐 show the ring",
			"🩺 run a health check",
			"📊 show stats",
			"🔧 stabilize",
			"💾 save a snapshot",
			"🖼 export the graph as DOT",
			"🗑 drop the overlay",
			"👋 exit"},
	}

	parser := GetCommandParser()

	var action string
	for {
		err := survey.AskOne(prompt, &action)
		if err != nil {
			fmt.Println(err)
			return false
		}

		switch action {
		case "⌨️ run a command (put / get / del / insert / remove)":
			var line string
			if err := survey.AskOne(&survey.Input{Message: "command:"}, &line); err != nil {
				fmt.Println(err)
				continue
			}
			command, err := parser.ParseString("", line)
			if err != nil {
				color.HiRed("=======  parse error: %v", err)
				continue
			}
			result, err := command.Run(c.ov)
			if err != nil {
				color.HiRed("=======  %v", err)
				continue
			}
			color.HiGreen("=======  %s", result)

		case "🪐 show the ring":
			fmt.Print(ringTree(c.ov))

		case "🩺 run a health check":
			report := c.ov.HealthCheck()
			fmt.Print(healthTable(report))
			if report.OK() {
				color.HiGreen("=======  all invariants hold")
			} else {
				color.HiRed("=======  %d violations", report.Total())
			}

		case "📊 show stats":
			fmt.Print(statsTable(c.ov.Stats()))
			fmt.Printf("average lookup hops: %.2f\n", c.counters.AverageHops())

		case "🔧 stabilize":
			if err := c.ov.Rebalance(); err != nil {
				color.HiRed("=======  %v", err)
				continue
			}
			color.HiGreen("=======  overlay converged")

		case "💾 save a snapshot":
			path, ok := askPath("save snapshot to:")
			if !ok {
				continue
			}
			if err := saveSnapshot(path, c.ov.Snapshot()); err != nil {
				color.HiRed("=======  %v", err)
				continue
			}
			color.HiGreen("=======  snapshot written to %s", path)

		case "🖼 export the graph as DOT":
			path, ok := askPath("write DOT to:")
			if !ok {
				continue
			}
			if err := os.WriteFile(path, []byte(writeDOT(c.ov.Graph())), 0o644); err != nil {
				color.HiRed("=======  %v", err)
				continue
			}
			color.HiGreen("=======  graph written to %s", path)

		case "🗑 drop the overlay":
			return true

		case "👋 exit":
			color.HiYellow("=======  Bye 👋")
			return false
		}
	}
}

// createOverlay prompts for the ring parameters and builds the overlay.
func createOverlay() (*console, error) {
	questions := []*survey.Question{
		{
			Name:     "bits",
			Prompt:   &survey.Input{Message: "ring exponent m (1-32):", Default: "5"},
			Validate: survey.Required,
		},
		{
			Name:   "ids",
			Prompt: &survey.Input{Message: "initial node ids (comma separated, empty for none):"},
		},
		{
			Name:   "passphrase",
			Prompt: &survey.Password{Message: "value passphrase (empty for plaintext storage):"},
		},
	}

	answers := struct {
		Bits       int
		IDs        string
		Passphrase string
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return nil, err
	}

	ids, err := parseIDList(answers.IDs)
	if err != nil {
		return nil, err
	}

	conf := overlay.Configuration{
		BitLength:  answers.Bits,
		InitialIDs: ids,
	}
	if answers.Passphrase != "" {
		aes, err := codec.NewAES(answers.Passphrase)
		if err != nil {
			return nil, err
		}
		conf.ValueCodec = aes
	}

	return newConsole(conf)
}

// loadOverlay restores an overlay from a YAML snapshot file.
func loadOverlay() (*console, error) {
	path, ok := askPath("load snapshot from:")
	if !ok {
		return nil, fmt.Errorf("no path given")
	}

	doc, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}

	c, err := newConsole(overlay.Configuration{BitLength: doc.BitLength})
	if err != nil {
		return nil, err
	}
	if err := c.ov.Restore(doc); err != nil {
		return nil, err
	}
	return c, nil
}
