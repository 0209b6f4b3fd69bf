package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/motivehq/browserd/internal/engine"
)

// historyWindow bounds how many past actions the prompt carries.
const historyWindow = 12

// Question is a decision the model needs the user to make.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Context  string   `json:"context,omitempty"`
}

// askFunc suspends the loop until the user answers or the context is
// cancelled.
type askFunc func(ctx context.Context, q Question) (string, error)

// Outcome is what a finished loop reports.
type Outcome struct {
	Success bool
	Result  string
	Steps   int
	URLs    []string
}

// loop is one task execution: repeated observe, decide, act rounds until the
// model declares done or the step budget runs out.
type loop struct {
	eng      engine.Engine
	provider Provider
	logger   *log.Logger
	ask      askFunc
	task     string
	maxSteps int

	history []string
	urls    []string
	lastURL string
}

func (l *loop) run(ctx context.Context) (*Outcome, error) {
	for step := 1; step <= l.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		state, err := l.eng.State(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read page state: %w", err)
		}
		l.visit(state.URL)

		prompt := buildStepPrompt(l.task, l.recentHistory(), state.Render(), step, l.maxSteps)
		completion, err := l.provider.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		action, err := parseAction(completion)
		if err != nil {
			l.record(step, "invalid", err.Error())
			continue
		}
		l.logger.Printf("task step %d: %s %v", step, action.Name, action.Params)

		if action.Name == actDone {
			return &Outcome{
				Success: action.boolean("success"),
				Result:  action.str("result"),
				Steps:   step,
				URLs:    l.urls,
			}, nil
		}

		if err := l.execute(ctx, action); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Surface the failure to the model so it can adjust.
			l.record(step, action.Name, fmt.Sprintf("failed: %v", err))
			continue
		}
		// askHuman records its own history line with the user's answer.
		if action.Name != actAskHuman {
			l.record(step, action.Name, describe(action))
		}
	}

	return &Outcome{
		Success: false,
		Result:  fmt.Sprintf("stopped after reaching the limit of %d steps", l.maxSteps),
		Steps:   l.maxSteps,
		URLs:    l.urls,
	}, nil
}

func (l *loop) execute(ctx context.Context, action *Action) error {
	switch action.Name {
	case actOpen:
		return l.eng.Open(ctx, action.str("url"))
	case actClick:
		return l.eng.Click(ctx, action.num("index", -1))
	case actInput:
		return l.eng.Input(ctx, action.num("index", -1), action.str("text"))
	case actType:
		return l.eng.Type(ctx, action.str("text"))
	case actKeys:
		return l.eng.PressKey(ctx, action.str("key"))
	case actScroll:
		dir := action.str("direction")
		if dir == "" {
			dir = "down"
		}
		return l.eng.Scroll(ctx, dir)
	case actBack:
		return l.eng.Back(ctx)
	case actRefresh:
		return l.eng.Refresh(ctx)
	case actSwitch:
		return l.eng.SwitchTab(ctx, action.num("index", -1))
	case actWait:
		seconds := action.num("seconds", 1)
		if seconds < 1 {
			seconds = 1
		}
		if seconds > 30 {
			seconds = 30
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(seconds) * time.Second):
			return nil
		}
	case actAskHuman:
		return l.askHuman(ctx, action)
	default:
		return fmt.Errorf("unknown action %q", action.Name)
	}
}

func (l *loop) askHuman(ctx context.Context, action *Action) error {
	q := Question{
		Question: action.str("question"),
		Options:  action.strs("options"),
		Context:  action.str("context"),
	}
	if q.Question == "" {
		return fmt.Errorf("ask_human requires a question")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("ask_human requires at least 2 options, got %d", len(q.Options))
	}

	answer, err := l.ask(ctx, q)
	if err != nil {
		return err
	}
	l.history = append(l.history, fmt.Sprintf("- asked: %q, user selected: %q", q.Question, answer))
	return nil
}

func (l *loop) record(step int, name, detail string) {
	l.history = append(l.history, fmt.Sprintf("- step %d: %s %s", step, name, detail))
}

func (l *loop) recentHistory() []string {
	if len(l.history) > historyWindow {
		return l.history[len(l.history)-historyWindow:]
	}
	return l.history
}

func (l *loop) visit(url string) {
	if url == "" || url == l.lastURL {
		return
	}
	l.lastURL = url
	l.urls = append(l.urls, url)
}

func describe(action *Action) string {
	switch action.Name {
	case actOpen:
		return action.str("url")
	case actClick, actSwitch:
		return fmt.Sprintf("index %d", action.num("index", -1))
	case actInput:
		return fmt.Sprintf("index %d", action.num("index", -1))
	case actType:
		return fmt.Sprintf("%d chars", len(action.str("text")))
	case actKeys:
		return action.str("key")
	case actScroll:
		return action.str("direction")
	}
	return "ok"
}
