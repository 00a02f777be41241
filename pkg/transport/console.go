package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
)

// cursor up one line, then erase it
const overwritePrevious = "\x1b[1A\x1b[2K"

// Printer writes envelopes to the console as one colored line each.
// Consecutive Progress lines overwrite each other.
type Printer struct {
	mu           sync.Mutex
	out          io.Writer
	colors       map[protocol.State]*color.Color
	lastProgress bool
}

func NewConsole(out io.Writer) *Printer {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	colors := map[protocol.State]*color.Color{
		protocol.StateError:    color.New(color.FgRed),
		protocol.StateWarning:  color.New(color.FgYellow),
		protocol.StateSuccess:  color.New(color.FgGreen),
		protocol.StateInfo:     color.New(color.FgCyan),
		protocol.StateState:    color.New(color.Faint),
		protocol.StateProgress: color.New(color.FgHiBlue),
	}
	for _, c := range colors {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return &Printer{out: out, colors: colors}
}

func (c *Printer) Print(out protocol.Outgoing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch o := out.(type) {
	case protocol.SelectorEnvelope:
		c.lastProgress = false
		for i, v := range o.Variants {
			fmt.Fprintf(c.out, "%d) %s\n", i+1, v.Name)
		}
	case protocol.Envelope:
		c.printEnvelope(o)
	}
}

func (c *Printer) printEnvelope(e protocol.Envelope) {
	paint := c.colors[e.State]
	if e.State == protocol.StateProgress {
		if c.lastProgress && e.Message != "0" {
			fmt.Fprint(c.out, overwritePrevious)
		}
		c.lastProgress = true
		fmt.Fprintln(c.out, paint.Sprintf("%s%%", e.Message))
		return
	}
	c.lastProgress = false
	if e.Message != "" {
		fmt.Fprintln(c.out, paint.Sprint(e.Message))
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			fmt.Fprintln(c.out, c.colors[protocol.StateError].Sprint(err.Error()))
			return
		}
		fmt.Fprintln(c.out, RenderTable(raw))
	}
}

// RenderTable lays out a JSON object as key/value rows, an array of objects
// as one row per element, and anything else as its raw text.
func RenderTable(raw []byte) string {
	doc := gjson.ParseBytes(raw)
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	switch {
	case doc.IsObject():
		doc.ForEach(func(key, value gjson.Result) bool {
			t.AppendRow(table.Row{key.String(), value.String()})
			return true
		})
	case doc.IsArray():
		items := doc.Array()
		if len(items) == 0 {
			return ""
		}
		if !items[0].IsObject() {
			for _, item := range items {
				t.AppendRow(table.Row{item.String()})
			}
			break
		}
		var header table.Row
		var keys []string
		items[0].ForEach(func(key, _ gjson.Result) bool {
			keys = append(keys, key.String())
			header = append(header, strings.ToUpper(key.String()))
			return true
		})
		t.AppendHeader(header)
		for _, item := range items {
			row := make(table.Row, 0, len(keys))
			for _, k := range keys {
				row = append(row, item.Get(gjson.Escape(k)).String())
			}
			t.AppendRow(row)
		}
	default:
		return doc.String()
	}
	return t.Render()
}
