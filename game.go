package main

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/scripthost/trace"
	"github.com/milk9111/scripthost/watch"
)

const (
	baseWidth  = 1280
	baseHeight = 720
)

// Game drives the engine from ebiten's update loop and prints the recent
// trace lines on screen.
type Game struct {
	engine  *Engine
	recent  *trace.Ring
	watcher *watch.Watcher
}

func NewGame(e *Engine, recent *trace.Ring, w *watch.Watcher) *Game {
	return &Game{engine: e, recent: recent, watcher: w}
}

func (g *Game) Update() error {
	g.drainWatcher()

	g.engine.Host.ExecuteUpdate()
	if limit := g.engine.cfg.Frames; limit > 0 && g.engine.Host.Frame() >= limit {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.engine.HandleChange(path)
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	var b strings.Builder
	fmt.Fprintf(&b, "Frames: %d    TPS: %.2f    Entities: %d\n",
		g.engine.Host.Frame(), ebiten.ActualTPS(), len(g.engine.Host.Entities()))
	b.WriteString("\n")
	if g.recent != nil {
		for _, line := range g.recent.Lines() {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	ebitenutil.DebugPrint(screen, b.String())
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
