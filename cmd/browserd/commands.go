package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/motivehq/browserd/internal/protocol"
)

// defaultTimeout covers ordinary page commands. Commands that block by
// design (wait, agent grace periods) get their own budgets.
const defaultTimeout = 120 * time.Second

func addClientCommands(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "open URL",
		Short: "Navigate to a URL (starts the browser if needed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdOpen, map[string]any{"url": args[0]}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Show the page state with numbered interactive elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdState, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "click INDEX",
		Short: "Click an element by its state index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return sendCommand(cmd, protocol.CmdClick, map[string]any{"index": index}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "input INDEX TEXT",
		Short: "Fill a form field by its state index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return sendCommand(cmd, protocol.CmdInput, map[string]any{"index": index, "text": args[1]}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "type TEXT",
		Short: "Type into the currently focused element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdType, map[string]any{"text": args[0]}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "keys KEY",
		Short: "Press a key or combination (Enter, Tab, Control+a, ...)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdKeys, map[string]any{"key": args[0]}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:       "scroll DIRECTION",
		Short:     "Scroll the page up or down",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{protocol.ScrollUp, protocol.ScrollDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdScroll, map[string]any{"direction": args[0]}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "back",
		Short: "Go back in browser history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdBack, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Reload the current page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdRefresh, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "screenshot [FILE]",
		Short: "Capture the viewport to a PNG file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			if len(args) > 0 {
				params["filename"] = args[0]
			}
			return sendCommand(cmd, protocol.CmdScreenshot, params, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "tabs",
		Short: "List open tabs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdTabs, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "switch INDEX",
		Short: "Switch to a tab by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return sendCommand(cmd, protocol.CmdSwitch, map[string]any{"index": index}, defaultTimeout)
		},
	})

	waitCmd := &cobra.Command{
		Use:   "wait [SECONDS]",
		Short: "Hold the session open for a manual step (login, captcha)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds := 30
			if len(args) > 0 {
				var err error
				if seconds, err = strconv.Atoi(args[0]); err != nil {
					return err
				}
			}
			message, _ := cmd.Flags().GetString("message")
			timeout := time.Duration(seconds)*time.Second + defaultTimeout
			return sendCommand(cmd, protocol.CmdWait, map[string]any{"seconds": seconds, "message": message}, timeout)
		},
	}
	waitCmd.Flags().StringP("message", "m", "", "Message describing what is being waited for")
	root.AddCommand(waitCmd)

	root.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Close the browser and stop the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdClose, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdPing, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "sessions",
		Short: "List active sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessions,
	})

	root.AddCommand(&cobra.Command{
		Use:   "kill",
		Short: "Force kill the daemon and browser processes",
		Args:  cobra.NoArgs,
		RunE:  runKill,
	})

	taskCmd := &cobra.Command{
		Use:   "agent_task TASK",
		Short: "Run a task autonomously, pausing to ask when a decision is needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxSteps, _ := cmd.Flags().GetInt("max-steps")
			model, _ := cmd.Flags().GetString("model")
			params := map[string]any{"task": args[0], "max_steps": maxSteps, "model": model}
			return sendCommand(cmd, protocol.CmdAgentTask, params, defaultTimeout)
		},
	}
	taskCmd.Flags().Int("max-steps", 50, "Maximum steps before the task gives up")
	taskCmd.Flags().String("model", "", "Model to use (default: auto-detect from API keys)")
	root.AddCommand(taskCmd)

	root.AddCommand(&cobra.Command{
		Use:   "agent_continue CHOICE",
		Short: "Answer a pending question from a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdAgentContinue, map[string]any{"choice": args[0]}, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "agent_status",
		Short: "Show the current task status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdAgentStatus, nil, defaultTimeout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "agent_cancel",
		Short: "Cancel the running task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, protocol.CmdAgentCancel, nil, defaultTimeout)
		},
	})
}
