package tapecmd

import (
	"bufio"
	"os"

	"go.brendoncarroll.net/star"

	"tapeweb.org/tape/tapelex"
	"tapeweb.org/tape/tapeop"
	"tapeweb.org/tape/tapess"
	"tapeweb.org/tape/tapess/tapehui"
)

var run = star.Command{
	Metadata: star.Metadata{
		Short: "run a program from a file, reading stdin and writing stdout",
	},
	Flags: []star.IParam{fileParam, TapeParam, MaxStepsParam},
	F: func(c star.Context) error {
		f := fileParam.Load(c)
		defer f.Close()
		prog, err := tapelex.TranslateReader(f)
		if err != nil {
			return err
		}
		return execProg(c, prog)
	},
}

var execCmd = star.Command{
	Metadata: star.Metadata{
		Short: "run a program given as an argument",
	},
	Flags: []star.IParam{TapeParam, MaxStepsParam},
	Pos:   []star.IParam{sourceParam},
	F: func(c star.Context) error {
		return execProg(c, tapelex.TranslateString(sourceParam.Load(c)))
	},
}

func execProg(c star.Context, prog tapeop.Program) error {
	_, err := tapess.Exec(c.Context, prog, c.StdIn, flushWriter{c.StdOut}, BuildRunConfig(c))
	return err
}

// flushWriter flushes w after every write, so each output byte is
// visible before the machine goes on, and before it blocks on input.
type flushWriter struct {
	w *bufio.Writer
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, fw.w.Flush()
}

var runStored = star.Command{
	Metadata: star.Metadata{
		Short: "run stored programs concurrently, and print their output",
	},
	Flags: []star.IParam{DBParam, TapeParam, MaxStepsParam},
	Pos:   []star.IParam{cidsParam},
	F: func(c star.Context) error {
		db := DBParam.Load(c)
		sys := tapess.NewSystem(db)
		infos, err := sys.RunAll(c.Context, cidsParam.LoadAll(c), BuildRunConfig(c))
		if err != nil {
			return err
		}
		return printRuns(c.StdOut, infos)
	},
}

var serve = star.Command{
	Metadata: star.Metadata{
		Short: "serve the HTTP UI",
	},
	Flags: []star.IParam{DBParam, ListenerParam, TapeParam, MaxStepsParam},
	F: func(c star.Context) error {
		// setup system
		db := DBParam.Load(c)
		sys := tapess.NewSystem(db)
		// setup listener
		lis := ListenerParam.Load(c)
		return tapehui.Serve(c.Context, lis, sys, BuildRunConfig(c))
	},
}

var sourceParam = star.Param[string]{
	Name:  "source",
	Parse: star.ParseString,
}

var fileParam = star.Param[*os.File]{
	Name: "f",
	Parse: func(x string) (*os.File, error) {
		return os.Open(x)
	},
}
