// Command assess walks an organization through an assessment from the
// terminal against a running API server.
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

	"digitalmaturity/internal/client"
	"digitalmaturity/internal/flow"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080/api", "API base URL")
	code := flag.String("code", os.Getenv("ASSESS_ACCESS_CODE"), "organization access code")
	password := flag.String("password", os.Getenv("ASSESS_PASSWORD"), "organization password")
	level := flag.Int("level", model.Level1, "assessment level (1 or 2)")
	resume := flag.String("resume", "", "resume an in-progress assessment by id")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logger.Nop()
	if *verbose {
		l, err := logger.New("dev")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log = l
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *apiURL, *code, *password, *level, *resume, log); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, apiURL, code, password string, level int, resume string, log *logger.Logger) error {
	if code == "" || password == "" {
		return errors.New("access code and password are required")
	}
	tok, err := client.Login(ctx, apiURL, code, password)
	if err != nil {
		return err
	}
	api := client.New(apiURL, tok.AccessToken, log)
	fmt.Printf("Benvenuto, %s\n", tok.Organization.Name)

	id := resume
	if id == "" {
		a, err := api.CreateAssessment(ctx, level)
		if err != nil {
			return err
		}
		id = a.ID
		fmt.Printf("Assessment %s creato\n", id)
	} else {
		a, err := api.LoadAssessment(ctx, id)
		if err != nil {
			return err
		}
		level = a.Level
	}

	ctrl, err := flow.Start(ctx, flow.Deps{Catalog: api, Store: api, Submitter: api, Logger: log}, id, level)
	if err != nil {
		var unavailable *flow.CatalogUnavailableError
		if errors.As(err, &unavailable) {
			return errors.New(unavailable.Reason)
		}
		return err
	}
	defer ctrl.Wait()

	return loop(ctx, ctrl, bufio.NewScanner(os.Stdin))
}

func loop(ctx context.Context, ctrl *flow.Controller, in *bufio.Scanner) error {
	for {
		step, ok := ctrl.Current()
		if !ok {
			return errors.New("no active question")
		}
		render(ctrl, step)
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())

		switch {
		case line == "q":
			fmt.Println("Progressi salvati. Arrivederci.")
			return nil
		case line == "n" || line == "":
			if _, err := ctrl.Advance(); err != nil {
				fmt.Println("!", err)
			}
		case line == "p":
			ctrl.Retreat()
		case strings.HasPrefix(line, "g "):
			qid, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err == nil {
				_, err = ctrl.GoTo(qid)
			}
			if err != nil {
				fmt.Println("!", err)
			}
		case line == "s":
			done, err := ctrl.Submit(ctx)
			if err != nil {
				fmt.Println("!", err)
				continue
			}
			printResult(done)
			return nil
		default:
			value, err := parseValue(step, line)
			if err == nil {
				err = ctrl.Select(ctx, step.QuestionID, value)
			}
			if err != nil {
				fmt.Println("!", err)
				continue
			}
			if !ctrl.IsLast() {
				ctrl.Advance()
			}
		}
	}
}

func render(ctrl *flow.Controller, step flow.Step) {
	p := ctrl.Progress()
	fmt.Printf("\n[%d/%d, risposte %d] %s\n", p.Position, p.Visible, p.Answered, step.Category)
	fmt.Printf("#%d %s\n", step.QuestionID, step.Text)

	current, answered := ctrl.Answers().Get(step.QuestionID)
	switch step.Kind {
	case flow.KindChoice:
		for i, o := range step.Question.Options {
			mark := " "
			if answered && current.HasOption && current.Option == i {
				mark = "*"
			}
			fmt.Printf(" %s %d) %s\n", mark, i, o.Text)
		}
	case flow.KindSelect, flow.KindMultiselect:
		selected := ctrl.Answers().ValuesOf(step.QuestionID)
		for i, v := range step.Values {
			mark := " "
			if contains(selected, v) {
				mark = "*"
			}
			fmt.Printf(" %s %d) %s\n", mark, i, v)
		}
		if step.Kind == flow.KindMultiselect {
			fmt.Println("   (indici separati da virgola)")
		}
	case flow.KindText:
		if answered && current.Value != nil {
			fmt.Printf("   attuale: %s\n", current.Value.Text)
		}
	}
	fmt.Println("   n=avanti p=indietro g <id>=vai s=invia q=esci")
}

// parseValue turns terminal input into the value kind EventFor expects
func parseValue(step flow.Step, line string) (interface{}, error) {
	switch step.Kind {
	case flow.KindChoice:
		return strconv.Atoi(line)
	case flow.KindText:
		return line, nil
	case flow.KindSelect:
		i, err := strconv.Atoi(line)
		if err != nil || i < 0 || i >= len(step.Values) {
			return nil, fmt.Errorf("scegli un indice tra 0 e %d", len(step.Values)-1)
		}
		return step.Values[i], nil
	case flow.KindMultiselect:
		var out []string
		for _, part := range strings.Split(line, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || i < 0 || i >= len(step.Values) {
				return nil, fmt.Errorf("indice non valido: %q", part)
			}
			out = append(out, step.Values[i])
		}
		return out, nil
	}
	return nil, fmt.Errorf("tipo di domanda non gestito: %s", step.Kind)
}

func printResult(a *model.Assessment) {
	fmt.Println("\nAssessment completato.")
	if a.MaturityLevel != nil {
		fmt.Printf("Livello di maturità: %.1f (%s)\n", *a.MaturityLevel, a.MaturityLabel)
	}
	for _, c := range a.Categories {
		gap := a.GapAnalysis[c]
		fmt.Printf("  %-40s %.2f  gap %.2f  %s\n", c, a.Scores[c], gap.Gap, gap.Priority)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
