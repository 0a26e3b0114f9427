// Package hostutil provides the concrete, filesystem-backed glue a
// host embedding the engine needs but that the engine itself treats as
// an external collaborator: locating a project root, loading a file of
// initial globals, and walking a directory for DSL/source files.
package hostutil

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/viant/graphdsl"
	"github.com/viant/graphdsl/ident"
)

// globalsDoc is the on-disk shape of globals.yaml: a flat mapping of
// identifier name to a scalar, list, or set literal.
type globalsDoc map[string]yaml.Node

// LoadGlobals reads globalsURL (typically "<project root>/globals.yaml")
// and interns its keys into idc, returning a populated Globals.
func LoadGlobals(ctx context.Context, globalsURL string, idc *ident.Context) (*graphdsl.Globals, error) {
	fs := afs.New()
	content, err := fs.DownloadWithURL(ctx, globalsURL)
	if err != nil {
		return nil, fmt.Errorf("loading globals from %s: %w", globalsURL, err)
	}
	var doc globalsDoc
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing globals yaml %s: %w", globalsURL, err)
	}
	globals := graphdsl.NewGlobals()
	for name, node := range doc {
		value, err := decodeValue(&node)
		if err != nil {
			return nil, fmt.Errorf("decoding global %q: %w", name, err)
		}
		if err := globals.Add(idc.Intern(name), value); err != nil {
			return nil, fmt.Errorf("adding global %q: %w", name, err)
		}
	}
	return globals, nil
}

func decodeValue(node *yaml.Node) (graphdsl.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		elems := make([]graphdsl.Value, len(node.Content))
		for i, child := range node.Content {
			v, err := decodeValue(child)
			if err != nil {
				return graphdsl.Value{}, err
			}
			elems[i] = v
		}
		if node.Tag == "!!set" {
			return graphdsl.SetValue(elems), nil
		}
		return graphdsl.ListValue(elems), nil
	default:
		return graphdsl.Value{}, fmt.Errorf("unsupported globals.yaml node kind %v", node.Kind)
	}
}

func decodeScalar(node *yaml.Node) (graphdsl.Value, error) {
	switch node.Tag {
	case "!!null":
		return graphdsl.NullValue(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return graphdsl.Value{}, err
		}
		return graphdsl.BoolValue(b), nil
	case "!!int":
		var n uint32
		if err := node.Decode(&n); err != nil {
			return graphdsl.Value{}, err
		}
		return graphdsl.IntValue(n), nil
	default:
		return graphdsl.StringValue(node.Value), nil
	}
}

// ProjectRoot walks up from startURL looking for a go.mod, returning the
// directory containing it and the module path declared inside, the same
// way the reference repo's project detector locates a Go project root.
func ProjectRoot(ctx context.Context, startURL string) (rootURL, modulePath string, err error) {
	fs := afs.New()
	cur := startURL
	for {
		goModURL := url.Join(cur, "go.mod")
		content, dlErr := fs.DownloadWithURL(ctx, goModURL)
		if dlErr == nil && len(content) > 0 {
			mod, parseErr := modfile.Parse(goModURL, content, nil)
			if parseErr != nil {
				return "", "", fmt.Errorf("parsing %s: %w", goModURL, parseErr)
			}
			return cur, mod.Module.Mod.Path, nil
		}
		parent := parentURL(cur)
		if parent == cur {
			return "", "", fmt.Errorf("no go.mod found above %s", startURL)
		}
		cur = parent
	}
}

func parentURL(u string) string {
	for i := len(u) - 1; i > 0; i-- {
		if u[i] == '/' {
			return u[:i]
		}
	}
	return u
}

// WalkSourceFiles walks root, invoking visit for every regular file
// whose name satisfies match, mirroring the reference repo's
// afs.Service.Walk + storage.OnVisit directory scan.
func WalkSourceFiles(ctx context.Context, root string, match func(name string) bool, visit func(fileURL string) error) error {
	fs := afs.New()
	var walkErr error
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		if !match(info.Name()) {
			return true, nil
		}
		if err := visit(url.Join(baseURL, parent, info.Name())); err != nil {
			walkErr = err
			return false, err
		}
		return true, nil
	}
	if err := fs.Walk(ctx, root, visitor); err != nil {
		return err
	}
	return walkErr
}
