// Package command maps named user commands onto session, memory and
// settings operations and renders their replies as text.
package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/memory"
	"github.com/samcharles93/yukari/internal/session"
)

// Conversation is the part of *session.Session the dispatcher drives.
type Conversation interface {
	Turn(ctx context.Context, raw string) (string, error)
	Redo(ctx context.Context) (string, error)
	Reset() error
	Stop() bool
	Settings() session.Settings
	SetTemperature(v float64) error
	SetTopK(k int) error
	SetTopP(p float64) error
	ToggleNucleus() bool
	SetPastLength(n int) (int, error)
	SetOutputLength(n int) error
}

// Memories is the part of *memory.Book the dispatcher drives.
type Memories interface {
	Remember(ctx context.Context, key, description string) error
	Forget(ctx context.Context, key string) error
	All() []memory.Entry
}

type handler func(ctx context.Context, args []string) (string, error)

type commandDef struct {
	usage string
	brief string
	run   handler
}

// Dispatcher runs one command at a time. Commands arriving while another
// runs wait for it to finish, so generations never interleave.
type Dispatcher struct {
	conv Conversation
	mem  Memories
	log  logger.Logger

	mu       sync.Mutex
	commands map[string]commandDef
	aliases  map[string]string
}

func New(conv Conversation, mem Memories, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	d := &Dispatcher{
		conv: conv,
		mem:  mem,
		log:  log.With(logger.ComponentKey, "cmd"),
		aliases: map[string]string{
			"s": "say",
			"d": "do",
			"r": "reset",
		},
	}
	d.commands = map[string]commandDef{
		"say":       {"say <text>", "Say something to Yukari", d.say},
		"do":        {"do <action>", "Do something to Yukari", d.do},
		"raw":       {"raw <text>", "Feed raw input to Yukari", d.raw},
		"redo":      {"redo", "Regenerate the last response", d.redo},
		"reset":     {"reset", "Forget the conversation so far", d.reset},
		"remember":  {"remember <key> <description>", "Permanently remember something", d.remember},
		"forget":    {"forget <key>", "Forget a remembered key", d.forget},
		"memories":  {"memories", "List saved memories", d.memories},
		"temp":      {"temp <float>", "Set the sampling temperature", d.temp},
		"top_k":     {"top_k <int>", "Set the top-k cut-off", d.topK},
		"top_p":     {"top_p <float>", "Set the nucleus probability mass", d.topP},
		"nucleus":   {"nucleus", "Toggle nucleus sampling", d.nucleus},
		"memlength": {"memlength <int>", "Set how many history entries are kept (0 = all)", d.memlength},
		"outlength": {"outlength <int>", "Set the maximum generated tokens per turn", d.outlength},
		"settings":  {"settings", "Show the current settings", d.settings},
	}
	return d
}

// Resolve maps an alias to its command name and reports whether the name is
// known.
func (d *Dispatcher) Resolve(name string) (string, bool) {
	name = strings.ToLower(name)
	if full, ok := d.aliases[name]; ok {
		name = full
	}
	_, ok := d.commands[name]
	return name, ok
}

// Names returns the command names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.commands))
	for n := range d.commands {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Help renders one line per command.
func (d *Dispatcher) Help() string {
	var b strings.Builder
	for _, n := range d.Names() {
		c := d.commands[n]
		fmt.Fprintf(&b, "%-30s %s\n", c.usage, c.brief)
	}
	return b.String()
}

// Dispatch runs the named command with args and returns the reply text.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) (string, error) {
	full, ok := d.Resolve(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	c := d.commands[full]

	d.mu.Lock()
	defer d.mu.Unlock()
	d.log.Debug("dispatch", "command", full, "args", len(args))
	return c.run(ctx, args)
}

// Stop interrupts a running generation without waiting for the queue.
func (d *Dispatcher) Stop() bool {
	return d.conv.Stop()
}

func (d *Dispatcher) say(ctx context.Context, args []string) (string, error) {
	text, err := d.text("say", args)
	if err != nil {
		return "", err
	}
	return d.conv.Turn(ctx, FormatSay(text))
}

func (d *Dispatcher) do(ctx context.Context, args []string) (string, error) {
	text, err := d.text("do", args)
	if err != nil {
		return "", err
	}
	return d.conv.Turn(ctx, FormatDo(text))
}

func (d *Dispatcher) raw(ctx context.Context, args []string) (string, error) {
	return d.conv.Turn(ctx, strings.Join(args, " "))
}

func (d *Dispatcher) redo(ctx context.Context, _ []string) (string, error) {
	return d.conv.Redo(ctx)
}

func (d *Dispatcher) reset(context.Context, []string) (string, error) {
	if err := d.conv.Reset(); err != nil {
		return "", err
	}
	return "Done!~", nil
}

func (d *Dispatcher) remember(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", d.usage("remember", nil)
	}
	key, desc := args[0], strings.Join(args[1:], " ")
	if err := d.mem.Remember(ctx, key, desc); err != nil {
		return "", err
	}
	return fmt.Sprintf("Remembering [%s] as {%s}", key, desc), nil
}

func (d *Dispatcher) forget(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", d.usage("forget", nil)
	}
	if err := d.mem.Forget(ctx, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Forgot [%s]", args[0]), nil
}

func (d *Dispatcher) memories(context.Context, []string) (string, error) {
	return FormatMemories(d.mem.All()), nil
}

func (d *Dispatcher) temp(_ context.Context, args []string) (string, error) {
	v, err := d.floatArg("temp", args)
	if err != nil {
		return "", err
	}
	if err := d.conv.SetTemperature(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("Temperature set to %g.", v), nil
}

func (d *Dispatcher) topK(_ context.Context, args []string) (string, error) {
	v, err := d.intArg("top_k", args)
	if err != nil {
		return "", err
	}
	if err := d.conv.SetTopK(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("Top-k set to %d.", v), nil
}

func (d *Dispatcher) topP(_ context.Context, args []string) (string, error) {
	v, err := d.floatArg("top_p", args)
	if err != nil {
		return "", err
	}
	if err := d.conv.SetTopP(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("Top-p set to %g.", v), nil
}

func (d *Dispatcher) nucleus(context.Context, []string) (string, error) {
	if d.conv.ToggleNucleus() {
		return "Nucleus sampling enabled.", nil
	}
	return "Nucleus sampling disabled.", nil
}

func (d *Dispatcher) memlength(_ context.Context, args []string) (string, error) {
	v, err := d.intArg("memlength", args)
	if err != nil {
		return "", err
	}
	evicted, err := d.conv.SetPastLength(v)
	if err != nil {
		return "", err
	}
	if evicted > 0 {
		return fmt.Sprintf("History length set to %d (%d old entries dropped).", v, evicted), nil
	}
	return fmt.Sprintf("History length set to %d.", v), nil
}

func (d *Dispatcher) outlength(_ context.Context, args []string) (string, error) {
	v, err := d.intArg("outlength", args)
	if err != nil {
		return "", err
	}
	if err := d.conv.SetOutputLength(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("Output length set to %d.", v), nil
}

func (d *Dispatcher) settings(context.Context, []string) (string, error) {
	st := d.conv.Settings()
	return fmt.Sprintf(
		"temperature=%g top_k=%d top_p=%g nucleus=%t greedy=%t memlength=%d outlength=%d batch=%d",
		st.Temperature, st.TopK, st.TopP, st.Nucleus, st.Greedy, st.PastLength, st.OutputLength, st.BatchSize,
	), nil
}

func (d *Dispatcher) usage(name string, err error) error {
	return &UsageError{Command: name, Usage: d.commands[name].usage, Err: err}
}

func (d *Dispatcher) text(name string, args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", d.usage(name, nil)
	}
	return text, nil
}

func (d *Dispatcher) floatArg(name string, args []string) (float64, error) {
	if len(args) != 1 {
		return 0, d.usage(name, nil)
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, d.usage(name, err)
	}
	return v, nil
}

func (d *Dispatcher) intArg(name string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, d.usage(name, nil)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, d.usage(name, err)
	}
	return v, nil
}

// FormatSay frames speech: You say, "<text>".
func FormatSay(text string) string {
	return `You say, "` + text + `"`
}

// FormatDo frames an action in the second person: "wave" becomes
// "You wave." A trailing period is added when missing.
func FormatDo(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	out := "You " + string(unicode.ToLower(r)) + text[size:]
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}

// FormatMemories lists entries in insertion order.
func FormatMemories(entries []memory.Entry) string {
	var b strings.Builder
	b.WriteString("Saved Memories:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s : %s\n", e.Key, e.Description)
	}
	return b.String()
}
