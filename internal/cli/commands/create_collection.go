package commands

import (
	"SchemaDesk/internal/config"
	"SchemaDesk/internal/model"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
)

// fieldFlags - повторяемый флаг -field name:type[!][=opt1,opt2].
// "!" делает поле обязательным, после "=" идут опции enum.
type fieldFlags []model.FieldSchema

func (f *fieldFlags) String() string {
	names := make([]string, len(*f))
	for i, fs := range *f {
		names[i] = fs.Name
	}
	return strings.Join(names, ",")
}

func (f *fieldFlags) Set(s string) error {
	fs, err := parseFieldSpec(s)
	if err != nil {
		return err
	}
	*f = append(*f, fs)
	return nil
}

func parseFieldSpec(s string) (model.FieldSchema, error) {
	spec, opts, hasOpts := strings.Cut(s, "=")
	name, typ, ok := strings.Cut(spec, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return model.FieldSchema{}, errors.New("field must be name:type[!][=opt1,opt2]")
	}
	fs := model.FieldSchema{Name: strings.TrimSpace(name)}
	typ = strings.TrimSpace(typ)
	if strings.HasSuffix(typ, "!") {
		fs.Required = true
		typ = strings.TrimSuffix(typ, "!")
	}
	fs.Type = model.FieldType(typ)
	if hasOpts {
		fs.Options = model.ParseOptions(opts)
	}
	return fs, nil
}

type createCollectionCmd struct{}

func (createCollectionCmd) Name() string        { return "create-collection" }
func (createCollectionCmd) Description() string { return "Create a collection from field specs" }
func (createCollectionCmd) Usage() string {
	return "create-collection <name> [-d text] -field name:type[!][=a,b]..."
}

func (createCollectionCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return ErrUsage
	}
	var (
		description string
		fields      fieldFlags
	)
	fs := flag.NewFlagSet("create-collection", flag.ContinueOnError)
	fs.SetOutput(Out)
	fs.StringVar(&description, "d", "", "description")
	fs.Var(&fields, "field", "field spec name:type[!][=opt1,opt2] (repeatable)")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 || len(fields) == 0 {
		return ErrUsage
	}

	s, err := loggedIn(ctx, cfg)
	if err != nil {
		return err
	}
	var created model.Collection
	payload := map[string]any{"name": args[0], "description": description, "fields": []model.FieldSchema(fields)}
	if _, err := s.Client.PostJSON(ctx, "/api/collections", payload, &created); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Collection %s created (id %s, %d fields)\n", created.Name, created.ID, len(created.Fields))
	return nil
}

func init() { RegisterCmd(createCollectionCmd{}) }
