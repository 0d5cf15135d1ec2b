package tapecmd

import (
	"fmt"
	"maps"
	"net"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"go.brendoncarroll.net/star"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"tapeweb.org/tape/tapess"
	"tapeweb.org/tape/tapess/tapehui"
)

// Manifest is a tape.toml file, describing the programs a server should start with.
type Manifest struct {
	// DB is the sqlite database path, ":memory:" if empty.
	DB string `toml:"db"`
	// Listen is the address to serve on, DefaultListenAddr if empty.
	Listen string `toml:"listen"`

	Run tapess.RunConfig `toml:"run"`
	// Programs maps names to source files, relative to the manifest.
	Programs map[string]string `toml:"programs"`

	// Dir is the directory containing the manifest (set at load time).
	Dir string `toml:"-"`
}

// LoadManifest parses the manifest at p.
func LoadManifest(p string) (*Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", p, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", p, err)
	}
	if m.Run.TapeSize < 0 {
		return nil, fmt.Errorf("%s: tape_size must not be negative", p)
	}
	if m.DB == "" {
		m.DB = ":memory:"
	}
	if m.Listen == "" {
		m.Listen = DefaultListenAddr
	}
	if m.Dir, err = filepath.Abs(filepath.Dir(p)); err != nil {
		return nil, err
	}
	return &m, nil
}

// SourcePath returns the path to the source file for the program called name.
func (m *Manifest) SourcePath(name string) string {
	p := m.Programs[name]
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Names returns the program names in sorted order.
func (m *Manifest) Names() []string {
	return slices.Sorted(maps.Keys(m.Programs))
}

var manifestParam = star.Param[*Manifest]{
	Name:    "f",
	Default: star.Ptr("tape.toml"),
	Parse:   LoadManifest,
}

var up = star.Command{
	Metadata: star.Metadata{
		Short: "store the programs in a manifest, and serve the HTTP UI",
	},
	Flags: []star.IParam{manifestParam},
	F: func(c star.Context) error {
		ctx := c.Context
		m := manifestParam.Load(c)
		db, err := openDB(m.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		sys := tapess.NewSystem(db)
		for _, name := range m.Names() {
			src, err := os.ReadFile(m.SourcePath(name))
			if err != nil {
				return err
			}
			cid, err := sys.Put(ctx, src)
			if err != nil {
				return fmt.Errorf("program %s: %w", name, err)
			}
			logctx.Info(ctx, "loaded program", zap.String("name", name), zap.Stringer("id", cid))
			c.Printf("%s\t%v\n", name, cid)
		}
		if err := c.StdOut.Flush(); err != nil {
			return err
		}
		lis, err := net.Listen("tcp", m.Listen)
		if err != nil {
			return err
		}
		c.Printf("listening on %v\n", lis.Addr())
		if err := c.StdOut.Flush(); err != nil {
			return err
		}
		return tapehui.Serve(ctx, lis, sys, m.Run)
	},
}
