package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/config"
	"github.com/KirkDiggler/spell-effects/internal/dice"
	"github.com/KirkDiggler/spell-effects/internal/effect"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/events"
	"github.com/KirkDiggler/spell-effects/internal/formula"
	"github.com/KirkDiggler/spell-effects/internal/normalize"
	effectsrepo "github.com/KirkDiggler/spell-effects/internal/repositories/effects"
	"github.com/KirkDiggler/spell-effects/internal/schema"
	"github.com/KirkDiggler/spell-effects/internal/services"
	effectsService "github.com/KirkDiggler/spell-effects/internal/services/effects"
)

const usage = `Usage: effectctl <command> [flags] [args]

Commands:
  roll <notation>        roll dice notation such as 2d6+3
  eval <formula>         evaluate a magnitude or conversion formula
  examples               list sample conversion formulas
  normalize <file>       repair a legacy effect record (or spell with -spell)
  validate <file>        repair, decode and validate an effect record
  schema                 print the JSON Schema of a stored record
  new                    store a default effect under a new spell id
  show <spell-id>        print a stored effect and its issues
  delete <spell-id>      remove a stored effect
  migrate                repair every stored effect record
`

func main() {
	log.SetFlags(0)

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "roll":
		err = runRoll(args)
	case "eval":
		err = runEval(args)
	case "examples":
		err = runExamples()
	case "normalize":
		err = runNormalize(args)
	case "validate":
		err = runValidate(args)
	case "schema":
		err = writeJSON(os.Stdout, schema.RecordSchema())
	case "new", "show", "delete", "migrate":
		err = runStore(ctx, cmd, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runRoll(args []string) error {
	fs := flag.NewFlagSet("roll", flag.ExitOnError)
	seed := fs.Uint64("seed", 0, "seed for reproducible rolls (0 = random)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one dice notation")
	}

	result, err := dice.RollString(fs.Arg(0), roller(*seed))
	if err != nil {
		return err
	}
	fmt.Printf("%s => %v = %d\n", result.Expression, result.Kept, result.Total)
	return nil
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	source := fs.Float64("source", 0, "SOURCE_AMOUNT")
	per := fs.Float64("per", 0, "PER_AMOUNT")
	seed := fs.Uint64("seed", 0, "seed for reproducible rolls (0 = random)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one formula")
	}

	reg, err := loadCatalog()
	if err != nil {
		return err
	}
	svc := effectsService.NewService(&effectsService.ServiceConfig{
		Repository: effectsrepo.NewInMemoryRepository(),
		Catalog:    reg,
	})

	input := &effectsService.PreviewInput{SourceAmount: *source, PerAmount: *per}
	if *seed != 0 {
		input.Seed = seed
	}
	preview, err := svc.Preview(fs.Arg(0), input)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, preview)
}

func runExamples() error {
	for _, ex := range formula.Examples() {
		fmt.Printf("%-24s %s\n", ex.Label, ex.Formula)
	}
	return nil
}

func runNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	spell := fs.Bool("spell", false, "input is a whole spell document")
	_ = fs.Parse(args)

	doc, err := readDocument(fs.Arg(0))
	if err != nil {
		return err
	}
	reg, err := loadCatalog()
	if err != nil {
		return err
	}

	n := normalize.New(reg)
	if *spell {
		return writeJSON(os.Stdout, n.NormalizeSpell(doc))
	}
	return writeJSON(os.Stdout, n.NormalizeRecord(doc))
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	_ = fs.Parse(args)

	doc, err := readDocument(fs.Arg(0))
	if err != nil {
		return err
	}
	reg, err := loadCatalog()
	if err != nil {
		return err
	}

	data, err := json.Marshal(normalize.New(reg).NormalizeRecord(doc))
	if err != nil {
		return err
	}
	inst, err := effect.Decode(data, reg)
	if err != nil {
		return err
	}

	issues := inst.Validate(reg)
	printIssues(issues)
	if len(issues) > 0 {
		os.Exit(1)
	}
	fmt.Println("ok")
	return nil
}

func runStore(ctx context.Context, cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	provider, err := services.NewProvider(ctx, &services.ProviderConfig{Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.Printf("Failed to close provider: %v", err)
		}
	}()
	svc := provider.EffectsService

	switch cmd {
	case "new":
		id, inst, err := svc.Create(ctx)
		if err != nil {
			return err
		}
		log.Printf("Created effect for spell %s", id)
		return writeJSON(os.Stdout, inst)
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("expected a spell id")
		}
		inst, issues, err := svc.Load(ctx, args[0])
		if err != nil {
			return err
		}
		printIssues(issues)
		return writeJSON(os.Stdout, inst)
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("expected a spell id")
		}
		return svc.Delete(ctx, args[0])
	default:
		provider.Events.Subscribe(events.EventTypeEffectUpgraded, events.ListenerFunc{
			Name: "effectctl-migrate",
			Fn: func(e events.Event) error {
				log.Printf("  upgraded %s", e.GetSpellID())
				return nil
			},
		})
		report, err := svc.MigrateAll(ctx, cfg.Effects.MigrateWorkers)
		if err != nil {
			return err
		}
		for id, reason := range report.Failed {
			log.Printf("  %s: %s", id, reason)
		}
		return writeJSON(os.Stdout, report)
	}
}

func loadCatalog() (*catalog.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return services.LoadCatalog(cfg)
}

func roller(seed uint64) dice.Roller {
	if seed == 0 {
		return dice.NewRandomRoller()
	}
	return dice.NewSeededRoller(seed)
}

func readDocument(path string) (map[string]any, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "input is not a JSON object")
	}
	if doc == nil {
		return nil, dnderr.InvalidArgument("input is null")
	}
	return doc, nil
}

func printIssues(issues []dnderr.Issue) {
	for _, issue := range issues {
		fmt.Fprintln(os.Stderr, issue.String())
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
