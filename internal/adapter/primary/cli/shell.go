package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mic-check/internal/logging"
)

func newShellCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell that runs mic-check subcommands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveShell(prompt)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "mic> ", "shell prompt")
	return cmd
}

func runInteractiveShell(prompt string) error {
	historyFile := filepath.Join(os.TempDir(), "mic-check-shell.history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	session := shellSession{verbosity: verbosity, config: cfgPath, backend: backend}
	fmt.Println("mic-check shell. Type 'help' for examples, 'exit' to leave.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println()
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit":
			fmt.Println("Bye!")
			return nil
		case "help":
			printShellHelp()
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			fmt.Printf("Parse error: %v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "log" {
			if err := handleShellLog(tokens[1:], &session); err != nil {
				fmt.Printf("log: %v\n", err)
			}
			continue
		}
		if tokens[0] == "shell" {
			fmt.Println("Already in the shell. Enter a command or 'exit'.")
			continue
		}

		if err := session.execute(tokens); err != nil {
			fmt.Printf("command error: %v\n", err)
		}
	}
}

// shellSession carries global flags across commands typed in the shell.
type shellSession struct {
	verbosity int
	config    string
	backend   string
}

func (s *shellSession) execute(args []string) error {
	if len(args) == 0 {
		return nil
	}
	full := []string{"--config", s.config}
	if s.backend != "" {
		full = append(full, "--backend", s.backend)
	}
	if s.verbosity > 0 {
		full = append(full, "-"+strings.Repeat("v", s.verbosity))
	}
	err := executeArgs(append(full, args...))
	// -v typed on a single command only lasts for that command
	verbosity = s.verbosity
	logging.SetVerbosity(s.verbosity)
	return err
}

func executeArgs(args []string) error {
	if len(args) == 0 {
		return nil
	}
	root := NewRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func handleShellLog(args []string, session *shellSession) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	var show bool
	fs.CountVarP(&vcount, "verbose", "v", "Increase verbosity (-v... up to 4)")
	fs.StringVar(&level, "level", "", "level (error|warn|info|debug|trace)")
	fs.BoolVarP(&show, "show", "s", false, "show the current level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case show && vcount == 0 && level == "":
		fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	case level != "":
		_, count, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		session.verbosity = count
	case vcount > 0:
		session.verbosity = vcount
	default:
		fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	}

	verbosity = session.verbosity
	logging.SetVerbosity(session.verbosity)
	fmt.Printf("log level set to %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
	return nil
}

func printShellHelp() {
	fmt.Println(`Examples:
  status                      # current volume and adjustability
  set 65%                     # set the input volume
  mute                        # toggle mute
  watch                       # print every change (Ctrl+C to stop)
  tui                         # terminal slider
  daemon                      # gain lock + mute hotkey
  web --addr 0.0.0.0:7070     # web UI only
  serve --addr 0.0.0.0:8080   # web UI + gain lock + hotkey
  config get                  # show the gain lock
  config set --target 70%     # change the gain lock
  apply                       # apply the lock target once
  log -vv                     # more detailed logs
  log --show                  # current log level
  exit / quit                 # leave the shell`)
}
