package tapecmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"go.brendoncarroll.net/star"

	"tapeweb.org/tape/tapess"
)

var put = star.Command{
	Metadata: star.Metadata{
		Short: "store a program from a file",
		Tags:  []string{"program"},
	},
	Flags: []star.IParam{DBParam, fileParam},
	F: func(c star.Context) error {
		db := DBParam.Load(c)
		sys := tapess.NewSystem(db)
		f := fileParam.Load(c)
		defer f.Close()
		src, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		cid, err := sys.Put(c.Context, src)
		if err != nil {
			return err
		}
		c.Printf("%v\n", cid)
		return nil
	},
}

var list = star.Command{
	Metadata: star.Metadata{
		Short: "list the programs in a system",
		Tags:  []string{"program"},
	},
	Flags: []star.IParam{DBParam},
	F: func(c star.Context) error {
		db := DBParam.Load(c)
		sys := tapess.NewSystem(db)
		infos, err := sys.List(c.Context)
		if err != nil {
			return err
		}
		return printPrograms(c.StdOut, infos)
	},
}

var drop = star.Command{
	Metadata: star.Metadata{
		Short: "remove a program and its runs from the system",
		Tags:  []string{"program"},
	},
	Flags: []star.IParam{DBParam},
	Pos:   []star.IParam{CIDParam},
	F: func(c star.Context) error {
		db := DBParam.Load(c)
		sys := tapess.NewSystem(db)
		return sys.Drop(c.Context, CIDParam.Load(c))
	},
}

var runs = star.Command{
	Metadata: star.Metadata{
		Short: "list the recorded runs of a program",
		Tags:  []string{"program"},
	},
	Flags: []star.IParam{DBParam},
	Pos:   []star.IParam{CIDParam},
	F: func(c star.Context) error {
		db := DBParam.Load(c)
		sys := tapess.NewSystem(db)
		infos, err := sys.Runs(c.Context, CIDParam.Load(c))
		if err != nil {
			return err
		}
		return printRuns(c.StdOut, infos)
	},
}

func printPrograms(w io.Writer, infos []tapess.ProgramInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tOPS\tCREATED\n")
	for _, info := range infos {
		fmt.Fprintf(tw, "%v\t%d\t%s\n", info.ID, info.Ops, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func printRuns(w io.Writer, infos []tapess.RunInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "RUN\tPROGRAM\tSTEPS\tOUTPUT\tERROR\n")
	for _, info := range infos {
		fmt.Fprintf(tw, "%d\t%v\t%d\t%s\t%s\n", info.ID, info.ProgramID, info.Steps, strconv.Quote(string(info.Output)), info.Error)
	}
	return tw.Flush()
}
