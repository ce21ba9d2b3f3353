package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/personamesh/core"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive REPL against one session",
		Long: "Read turns from stdin and feed them through the retention pipeline.\n" +
			"Words starting with '#' become topic tags. Prefix a line with\n" +
			"'emotion:intensity ' (e.g. 'happy:0.6 ') to attach an affect delta.\n" +
			"Commands: /inspect, /sleep, /quit.",
		Run: runChat,
	}

	cmd.Flags().String("emotion", "curious", "Default emotion when a line carries none")
	cmd.Flags().Float64("intensity", 0.4, "Default affect intensity")
	cmd.Flags().Bool("show-context", false, "Print the fused context bundle each turn")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	emotion, _ := cmd.Flags().GetString("emotion")
	intensity, _ := cmd.Flags().GetFloat64("intensity")
	showContext, _ := cmd.Flags().GetBool("show-context")

	mesh := newMesh()
	ctx := cmd.Context()
	defer func() {
		if _, err := mesh.EndSession(ctx, sessionID); err != nil {
			fmt.Fprintf(os.Stderr, "warn: end session: %v\n", err)
		}
	}()

	fmt.Printf("personamesh %s — session %q (/quit to exit)\n", cmd.Root().Version, sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			return
		case "/inspect":
			printDiagnostics(ctx, mesh)
			continue
		case "/sleep":
			sess, err := mesh.Session(ctx, sessionID)
			if err != nil {
				exitErr("session", err)
			}
			res, err := sess.Sleep(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warn: sleep: %v\n", err)
				continue
			}
			fmt.Printf("consolidated: promoted=%d reinforced=%d discarded=%d compressed=%d deferred=%d\n",
				res.Promoted, res.Reinforced, res.Discarded, res.Compressed, res.Deferred)
			continue
		}

		text, delta, tags := parseTurn(line, emotion, intensity)
		ev := core.NewEvent(core.NewID(), delta, tags...)

		reply, bundle, err := mesh.Respond(ctx, sessionID, ev, text)
		if errors.Is(err, core.ErrNoBackend) {
			bundle, err = mesh.ProcessTurn(ctx, sessionID, ev)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: turn: %v\n", err)
			continue
		}

		if showContext || reply == "" {
			fmt.Println("--- context ---")
			fmt.Print(bundle.Render())
			fmt.Println("---------------")
		}
		if reply != "" {
			fmt.Println(reply)
		}
	}
}

// parseTurn splits an input line into prompt text, an affect delta and topic
// tags. A leading "emotion:intensity" token overrides the defaults; words
// starting with '#' are collected as tags and stripped from the text.
func parseTurn(line, defaultEmotion string, defaultIntensity float64) (string, core.AffectDelta, []string) {
	delta := core.AffectDelta{Emotion: defaultEmotion, Intensity: defaultIntensity}

	fields := strings.Fields(line)
	if len(fields) > 0 {
		if em, in, ok := parseAffectToken(fields[0]); ok {
			delta.Emotion, delta.Intensity = em, in
			fields = fields[1:]
		}
	}

	var tags, words []string
	for _, f := range fields {
		if tag, ok := strings.CutPrefix(f, "#"); ok && tag != "" {
			tags = append(tags, strings.ToLower(tag))
			continue
		}
		words = append(words, f)
	}
	return strings.Join(words, " "), delta, tags
}

func parseAffectToken(tok string) (string, float64, bool) {
	emotion, rest, ok := strings.Cut(tok, ":")
	if !ok || emotion == "" {
		return "", 0, false
	}
	var intensity float64
	if _, err := fmt.Sscanf(rest, "%f", &intensity); err != nil {
		return "", 0, false
	}
	if intensity < 0 || intensity > 1 {
		return "", 0, false
	}
	return emotion, intensity, true
}
