// package tapehui serves an HTTP UI and API for a tapess.System
package tapehui

import (
	"bytes"
	"context"
	"embed"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.brendoncarroll.net/exp/slices2"
	"go.brendoncarroll.net/stdctx/logctx"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/cadata"
	"tapeweb.org/tape/tapelex"
	"tapeweb.org/tape/tapess"
)

const (
	// DefaultMaxSteps is the step budget for runs started over HTTP,
	// used when the RunConfig does not set one.
	DefaultMaxSteps = 1 << 24
	// RunTimeout bounds the time a request can spend running a program.
	RunTimeout = 10 * time.Second
)

var errRunTimeout = errors.New("run exceeded the request timeout")

func Serve(ctx context.Context, l net.Listener, sys *tapess.System, cfg tapess.RunConfig) error {
	return New(sys, cfg).Serve(ctx, l)
}

// devPath is the path to the views from the directory the application is run.
// when it is empty the embeded views are used.
var devPath = "" // "./tapess/tapehui"

type Server struct {
	sys   *tapess.System
	cfg   tapess.RunConfig
	app   *fiber.App
	bgCtx context.Context

	runTimeout time.Duration
}

// New creates a Server for sys.
// Runs use cfg, with DefaultMaxSteps if cfg.MaxSteps is 0.
func New(sys *tapess.System, cfg tapess.RunConfig) *Server {
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	s := &Server{sys: sys, cfg: cfg, bgCtx: context.Background(), runTimeout: RunTimeout}

	var renderer *html.Engine
	if devPath != "" {
		renderer = html.New(devPath, ".html")
		renderer.Reload(true)
	} else {
		renderer = html.NewFileSystem(http.FS(viewFS), ".html")
	}
	renderer.AddFunc("hexDump", func(x []byte) string {
		return hex.Dump(x)
	})
	renderer.AddFunc("quote", func(x []byte) string {
		return strconv.Quote(string(x))
	})
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Views:                 renderer,
	})
	// views
	app.Get("/", s.home)
	app.Post("/program", s.postProgram)
	app.Get("/program/:id", s.program)
	app.Post("/program/:id/run", s.runProgram)
	app.Post("/program/:id/drop", s.dropProgram)

	v1 := app.Group("/v1")
	v1.Post("/run", s.runSource)
	v1.Post("/program", s.putProgram)
	v1.Get("/program/:id/ws", websocket.New(s.handleWS))
	s.app = app
	return s
}

// Serve serves HTTP on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.bgCtx = ctx
	logctx.Infof(ctx, "serving on %v", l.Addr())
	stop := context.AfterFunc(ctx, func() {
		s.app.Shutdown()
		l.Close()
	})
	defer stop()
	err := s.app.Listener(l)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type programInfo struct {
	ID        string
	Source    string
	Ops       int
	CreatedAt time.Time
}

func makeProgramInfo(x tapess.ProgramInfo) programInfo {
	return programInfo{
		ID:        x.ID.String(),
		Source:    x.Source,
		Ops:       x.Ops,
		CreatedAt: x.CreatedAt,
	}
}

func (s *Server) home(c *fiber.Ctx) error {
	ctx := c.Context()
	infos, err := s.sys.List(ctx)
	if err != nil {
		return err
	}
	return c.Render("view/home", struct {
		Hostname string
		Programs []programInfo
	}{
		Hostname: c.Hostname(),
		Programs: slices2.Map(infos, makeProgramInfo),
	}, "view/layout")
}

func (s *Server) postProgram(c *fiber.Ctx) error {
	ctx := c.Context()
	cid, err := s.sys.Put(ctx, []byte(c.FormValue("source")))
	if err != nil {
		return err
	}
	return c.Redirect("/program/" + cid.String())
}

func (s *Server) program(c *fiber.Ctx) error {
	ctx := c.Context()
	cid, err := s.getProgramID(c)
	if err != nil {
		return err
	}
	info, err := s.sys.Info(ctx, cid)
	if err != nil {
		return wrapNotFound(err)
	}
	runs, err := s.sys.Runs(ctx, cid)
	if err != nil {
		return err
	}
	return c.Render("view/program", struct {
		Hostname string
		Program  programInfo
		Runs     []tapess.RunInfo
	}{
		Hostname: c.Hostname(),
		Program:  makeProgramInfo(*info),
		Runs:     runs,
	}, "view/layout")
}

func (s *Server) runProgram(c *fiber.Ctx) error {
	ctx, cf := s.runContext(c)
	defer cf()
	cid, err := s.getProgramID(c)
	if err != nil {
		return err
	}
	input := bytes.NewReader([]byte(c.FormValue("input")))
	if info, err := s.sys.Run(ctx, cid, input, nil, s.cfg); info == nil {
		return wrapNotFound(err)
	}
	return c.Redirect("/program/" + cid.String())
}

func (s *Server) dropProgram(c *fiber.Ctx) error {
	ctx := c.Context()
	cid, err := s.getProgramID(c)
	if err != nil {
		return err
	}
	if err := s.sys.Drop(ctx, cid); err != nil {
		return err
	}
	return c.Redirect("/")
}

// runSource runs the request body as a program, without storing it.
// The query parameter "input" is the program's input.
func (s *Server) runSource(c *fiber.Ctx) error {
	ctx, cf := s.runContext(c)
	defer cf()
	prog := tapelex.Translate(c.Body())
	input := bytes.NewReader([]byte(c.Query("input")))
	out := bytes.Buffer{}
	info, err := tapess.Exec(ctx, prog, input, &out, s.cfg)
	c.Set("X-Tape-Steps", strconv.FormatUint(info.Steps, 10))
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).SendString(err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(out.Bytes())
}

// putProgram stores the request body as a program and responds with its ID.
func (s *Server) putProgram(c *fiber.Ctx) error {
	ctx := c.Context()
	cid, err := s.sys.Put(ctx, c.Body())
	if err != nil {
		return err
	}
	return c.JSON(struct {
		ID tape.CID `json:"id"`
	}{ID: cid})
}

func (s *Server) getProgramID(c *fiber.Ctx) (tape.CID, error) {
	cid, err := cadata.ParseID(c.Params("id"))
	if err != nil {
		return tape.CID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return cid, nil
}

// runContext is the context for a run started by a request.
// fasthttp does not cancel the request context when the client goes away.
func (s *Server) runContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(c.Context(), s.runTimeout, errRunTimeout)
}

func wrapNotFound(err error) error {
	if errors.As(err, &tapess.ErrProgramNotFound{}) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

//go:embed view/*
var viewFS embed.FS
