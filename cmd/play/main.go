// Command play is a terminal client for a running lifesim server.
//
//	go run ./cmd/play -addr http://localhost:3001 -preset 1
//
// Type a choice number or free text to act. Lines starting with a slash are
// commands; /help lists them.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lifesim/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Width(80)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87AFFF")).
			PaddingLeft(2)

	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1).
			PaddingRight(1)

	statStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))
)

const helpText = "/undo  /settle  /export  /model <id>  /presets  /quit"

func main() {
	addr := flag.String("addr", "http://localhost:3001", "server base URL")
	preset := flag.Int("preset", 0, "preset index, see -list")
	role := flag.String("role", "", "target life, overrides the preset's")
	lang := flag.String("lang", "", "language: en, zh-CN or zh-TW")
	model := flag.String("model", "", "model id for this session")
	list := flag.Bool("list", false, "list presets and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *addr, *preset, *role, *lang, *model, *list); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, preset int, role, lang, model string, list bool) error {
	c, err := newClient(addr)
	if err != nil {
		return err
	}
	if list {
		return printPresets(ctx, c)
	}

	var language models.Language
	if lang != "" {
		if language, err = models.ParseLanguage(lang); err != nil {
			return err
		}
	}
	if model != "" {
		effective, err := c.setModel(ctx, model)
		if err != nil {
			return err
		}
		fmt.Println(helpStyle.Render("model: " + effective))
	}

	fmt.Println(helpStyle.Render("starting..."))
	v, err := c.start(ctx, preset, role, language)
	if err != nil {
		return err
	}
	render(v)

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		quit, err := handleLine(ctx, c, &v, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Println(describeError(err))
		}
		if quit {
			return nil
		}
	}
}

// describeError renders err, followed by the server's hint when it sent one.
func describeError(err error) string {
	out := errorStyle.Render(err.Error())
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Hint != "" {
		out += "\n" + helpStyle.Render(apiErr.Hint)
	}
	return out
}

// handleLine runs one command or turn; it reports whether to quit.
func handleLine(ctx context.Context, c *client, v *view, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(helpStyle.Render(helpText))
		return false, nil
	case "/presets":
		return false, printPresets(ctx, c)
	case "/model":
		effective, err := c.setModel(ctx, strings.TrimSpace(arg))
		if err != nil {
			return false, err
		}
		fmt.Println(helpStyle.Render("model: " + effective))
		return false, nil
	case "/undo":
		next, err := c.undo(ctx)
		if err != nil {
			return false, err
		}
		*v = next
		render(next)
		return false, nil
	case "/export":
		md, err := c.export(ctx)
		if err != nil {
			return false, err
		}
		fmt.Println(md)
		return false, nil
	case "/settle":
		s, err := c.settle(ctx)
		if err != nil {
			return false, err
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("%s · grade %s", s.Role, s.Grade)))
		fmt.Println(eventStyle.Render(s.Verdict))
		fmt.Println(statStyle.Render(fmt.Sprintf("score %.1f after %d turns (chapter %d, %s)", s.Score, s.Turns, s.Chapter, s.Difficulty)))
		return true, nil
	}

	input := resolveChoice(v.Response, line)
	fmt.Println(helpStyle.Render("thinking..."))
	next, err := c.turn(ctx, input)
	if err != nil {
		return false, err
	}
	*v = next
	render(next)
	return false, nil
}

// resolveChoice maps a bare number onto the matching option or choice.
func resolveChoice(resp *models.GameResponse, line string) string {
	n, err := strconv.Atoi(line)
	if err != nil || resp == nil || n < 1 {
		return line
	}
	if n <= len(resp.Options) {
		return resp.Options[n-1]
	}
	if resp.Question != nil && n <= len(resp.Question.Choices) {
		return resp.Question.Choices[n-1]
	}
	return line
}

func render(v view) {
	p := v.State.PlayerProfile
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s · Chapter %d · Turn %d", p.Role, p.Chapter(), p.TurnCount)))

	var stats []string
	for _, name := range models.StatNames {
		val, _ := v.State.Stats.Get(name)
		stats = append(stats, fmt.Sprintf("%s %d", name, val))
	}
	fmt.Println(statStyle.Render(strings.Join(stats, "  ")))

	if v.Response == nil {
		return
	}
	fmt.Println(eventStyle.Render(v.Response.Event))
	if v.Fallback {
		fmt.Println(helpStyle.Render("(the model answered in an unexpected format)"))
	}
	if item := v.Response.ItemDrop; item != nil {
		fmt.Println(optionStyle.Render("+ " + item.Name + ": " + item.Description))
	}
	if ach := v.Response.Achievement; ach != nil {
		fmt.Println(optionStyle.Render("★ " + ach.Title))
	}
	for i, opt := range v.Response.Options {
		fmt.Println(optionStyle.Render(fmt.Sprintf("%d. %s", i+1, opt)))
	}
	if q := v.Response.Question; q != nil {
		fmt.Println(questionStyle.Render(q.Text))
		for i, choice := range q.Choices {
			fmt.Println(optionStyle.Render(fmt.Sprintf("%d. %s", i+1, choice)))
		}
	}
	fmt.Println(helpStyle.Render(helpText))
}

func printPresets(ctx context.Context, c *client) error {
	presets, err := c.presets(ctx)
	if err != nil {
		return err
	}
	for _, p := range presets {
		fmt.Println(optionStyle.Render(fmt.Sprintf("%d. %s: %s (%s, %s)", p.Index, p.Name, p.TargetLife, p.Difficulty, p.Mode)))
	}
	return nil
}
