// Command solinspect builds the assembly described by a manifest and prints
// its classes, meta functions and member visibility.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	solscript "github.com/PatrickSachs/SolScript-sub001"
	"github.com/PatrickSachs/SolScript-sub001/manifest"
	"github.com/PatrickSachs/SolScript-sub001/object"
)

func main() {
	var (
		manifestPath string
		className    string
		verbose      bool
	)

	flag.StringVar(&manifestPath, "manifest", "", "path to the assembly manifest")
	flag.StringVar(&className, "class", "", "only report this class")
	flag.BoolVar(&verbose, "v", false, "log build phases")
	flag.Parse()

	if manifestPath == "" {
		log.Fatal("-manifest is required")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), os.Stdout, manifestPath, className, logger); err != nil {
		log.Fatalf("!! %+v", err)
	}
}

func run(ctx context.Context, w io.Writer, manifestPath string, className string, logger *slog.Logger) error {
	m, err := manifest.LoadFile(manifestPath)
	if err != nil {
		return err
	}
	a, err := m.Assemble(ctx, solscript.WithLogger(logger))
	if err != nil {
		return err
	}

	classes := a.Classes()
	if className != "" {
		def, ok := a.Class(className)
		if !ok {
			return fmt.Errorf("class %s: %w", className, solscript.ErrUnknownClass)
		}
		classes = []*object.ClassDefinition{def}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "language version: %s\n\n", a.LanguageVersion())
	for _, def := range classes {
		printClass(tw, a, def)
	}
	if className == "" {
		printGlobals(tw, a)
	}
	return tw.Flush()
}

func printClass(w io.Writer, a *solscript.Assembly, def *object.ClassDefinition) {
	var chain []string
	for _, level := range def.Levels() {
		chain = append(chain, level.Name)
	}
	fmt.Fprintf(w, "class %s (%s)\n", def.Name, def.Mode)
	fmt.Fprintf(w, "  levels:\t%s\n", strings.Join(chain, " > "))
	if def.Native != nil {
		fmt.Fprintf(w, "  native:\t%s\n", def.Native.Type)
	}
	if missing := def.AbstractFunctions(); len(missing) > 0 {
		fmt.Fprintf(w, "  abstract:\t%s\n", strings.Join(missing, ", "))
	}

	fmt.Fprintf(w, "  META\tDEFINED IN\tRETURNS\n")
	for _, key := range object.MetaKeys(a.LanguageVersion()) {
		if key.AnnotationOnly && def.Mode != object.ModeAnnotation {
			continue
		}
		f, ok := def.MetaFunction(key.Name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", key.Name, f.DefinedIn.Name, f.Return)
	}

	fmt.Fprintf(w, "  MEMBER\tKIND\tACCESS\tDEFINED IN\tVISIBLE FROM\n")
	for _, r := range visibility(def) {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", r.name, r.kind, r.access, r.definedIn, r.visibleFrom)
	}
	fmt.Fprintln(w)
}

func printGlobals(w io.Writer, a *solscript.Assembly) {
	fmt.Fprintf(w, "globals\n")
	fmt.Fprintf(w, "  NAME\tKIND\tACCESS\tTYPE\n")
	for _, f := range a.Functions() {
		fmt.Fprintf(w, "  %s\tfunction\t%s\t%s\n", f.Name, f.Access, f.Return)
	}
	for _, f := range a.Fields() {
		fmt.Fprintf(w, "  %s\tfield\t%s\t%s\n", f.Name, f.Access, f.Type)
	}
}

type row struct {
	name        string
	kind        string
	access      object.AccessModifier
	definedIn   string
	visibleFrom string
}

// visibility lists the members of every level and the instance scopes they
// resolve from. Local members are only visible in the level scope of their
// class. Functions are shadowed by a redefinition in a subclass.
func visibility(def *object.ClassDefinition) []row {
	var rows []row
	for _, level := range def.Levels() {
		for _, f := range level.Fields() {
			rows = append(rows, row{
				name:        f.Name,
				kind:        "field",
				access:      f.Access,
				definedIn:   level.Name,
				visibleFrom: scopesFor(level, f.Access),
			})
		}
		for _, f := range level.Functions() {
			r := row{
				name:      f.Name,
				kind:      "function",
				access:    f.Access,
				definedIn: level.Name,
			}
			if f.Member == object.Abstract {
				r.kind = "abstract function"
			}
			resolved, _ := def.TryGetFunction(f.Name, false, nil)
			switch {
			case f.Access == object.Local:
				r.visibleFrom = scopesFor(level, f.Access)
			case resolved != f:
				r.visibleFrom = "shadowed by " + resolved.DefinedIn.Name
			case f.Member == object.Abstract:
				r.visibleFrom = "-"
			default:
				r.visibleFrom = scopesFor(level, f.Access)
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func scopesFor(level *object.ClassDefinition, access object.AccessModifier) string {
	switch access {
	case object.Local:
		return "level(" + level.Name + ")"
	case object.Internal:
		return "internal, levels"
	}
	return "member, internal, levels"
}
