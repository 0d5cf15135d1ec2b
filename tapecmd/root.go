// package tapecmd implements the tape command line tool.
package tapecmd

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/star"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/cadata"
	"tapeweb.org/tape/tapess"
)

func Root() star.Command {
	return root
}

var root = star.NewDir(star.Metadata{
	Short: "8-instruction tape machine",
}, map[star.Symbol]star.Command{
	// run without storing
	"run":  run,
	"exec": execCmd,

	// stored programs
	"put":        put,
	"list":       list,
	"drop":       drop,
	"runs":       runs,
	"run-stored": runStored,
	"serve":      serve,
	"up":         up,

	"status": status,
})

var status = star.Command{
	Metadata: star.Metadata{
		Short: "check that the database can be opened",
	},
	Flags: []star.IParam{DBParam},
	F: func(c star.Context) error {
		c.Printf("STATUS\n")
		db := DBParam.Load(c)
		if err := db.Ping(); err != nil {
			return err
		}
		return db.Close()
	},
}

var DBParam = star.Param[*sqlx.DB]{
	Name:    "db",
	Default: star.Ptr(":memory:"),
	Parse:   openDB,
}

func openDB(p string) (*sqlx.DB, error) {
	db, err := tapess.OpenDB(p)
	if err != nil {
		return nil, err
	}
	if err := tapess.SetupDB(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// DefaultListenAddr is where up serves when the manifest does not give an address.
const DefaultListenAddr = "127.0.0.1:6667"

var ListenerParam = star.Param[net.Listener]{
	Name: "l",
	Parse: func(x string) (net.Listener, error) {
		return net.Listen("tcp", x)
	},
}

// TapeParam and MaxStepsParam are optional.
// star fills in at most one Default per command, so they are Repeated instead,
// and the last value given is used.
var TapeParam = star.Param[int]{
	Name:     "tape",
	Repeated: true,
	Parse:    ParseTapeSize,
}

func ParseTapeSize(x string) (int, error) {
	n, err := strconv.Atoi(x)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("tape size must be positive, have %d", n)
	}
	return n, nil
}

var MaxStepsParam = star.Param[uint64]{
	Name:     "max-steps",
	Repeated: true,
	Parse: func(x string) (uint64, error) {
		return strconv.ParseUint(x, 10, 64)
	},
}

var CIDParam = star.Param[tape.CID]{Name: "id", Parse: cadata.ParseID}

var cidsParam = star.Param[tape.CID]{
	Name:     "ids",
	Repeated: true,
	Parse:    cadata.ParseID,
}

// BuildRunConfig returns the RunConfig given by the --tape and --max-steps flags,
// or tapess.DefaultRunConfig for any that are missing.
func BuildRunConfig(c star.Context) tapess.RunConfig {
	cfg := tapess.DefaultRunConfig()
	if n, ok := TapeParam.LoadOpt(c); ok {
		cfg.TapeSize = n
	}
	if n, ok := MaxStepsParam.LoadOpt(c); ok {
		cfg.MaxSteps = n
	}
	return cfg
}
