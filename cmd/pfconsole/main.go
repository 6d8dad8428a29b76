// Command pfconsole is a manual test harness for the pf/rhf layers: a
// line-oriented console exposing allocate/dispose/get/unfix/markdirty
// on the paged-file layer and insert/get/delete/scan on the heap
// layer, mirroring the original system's testpf_* drivers.
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"pfheap/pkg/config"
	"pfheap/pkg/console"
	"pfheap/pkg/pf"
	"pfheap/pkg/rhf"
)

type state struct {
	name  string
	pfFD  pf.FD
	open  bool
	pages map[int64]*pf.Page
	scan  *rhf.Scan
}

func main() {
	strategyFlag := flag.String("strategy", "lru", "replacement strategy: lru or mru")
	bufFlag := flag.Int("buffer", config.DefaultBufferSize, "number of frames in the buffer pool")
	promptFlag := flag.Bool("prompt", true, "print the console prompt; disable when piping output")
	flag.Parse()

	switch strings.ToLower(*strategyFlag) {
	case "mru":
		pf.SetStrategy(config.MRU)
	default:
		pf.SetStrategy(config.LRU)
	}
	pf.SetBufferSize(*bufFlag)
	pf.Init()

	c := console.New()
	st := &state{pages: make(map[int64]*pf.Page)}
	registerFileCommands(c, st)
	registerPFCommands(c, st)
	registerRHFCommands(c, st)

	c.Run(nil, config.GetPrompt(*promptFlag), nil, nil)
}

func registerFileCommands(c *console.Console, st *state) {
	c.AddCommand("create", func(payload string, _ *console.Session) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: create <name>")
		}
		return "", pf.CreateFile(fields[1])
	}, "Create a new paged file. usage: create <name>")

	c.AddCommand("destroy", func(payload string, _ *console.Session) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: destroy <name>")
		}
		return "", pf.DestroyFile(fields[1])
	}, "Destroy a paged file. usage: destroy <name>")

	c.AddCommand("open", func(payload string, _ *console.Session) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: open <name>")
		}
		fd, err := pf.OpenFile(fields[1])
		if err != nil {
			return "", err
		}
		st.pfFD = fd
		st.open = true
		st.name = fields[1]
		return fmt.Sprintf("opened %s", fields[1]), nil
	}, "Open a paged file. usage: open <name>")

	c.AddCommand("close", func(payload string, _ *console.Session) (string, error) {
		if !st.open {
			return "", fmt.Errorf("no file open")
		}
		if err := pf.CloseFile(st.pfFD); err != nil {
			return "", err
		}
		st.open = false
		st.pages = make(map[int64]*pf.Page)
		return fmt.Sprintf("closed %s", st.name), nil
	}, "Close the open file. usage: close")
}

func registerPFCommands(c *console.Console, st *state) {
	c.AddCommand("pf_alloc", func(payload string, _ *console.Session) (string, error) {
		page, err := pf.AllocPage(st.pfFD)
		if err != nil {
			return "", err
		}
		st.pages[page.PageNum()] = page
		return fmt.Sprintf("allocated page %d", page.PageNum()), nil
	}, "Allocate a new page. usage: pf_alloc")

	c.AddCommand("pf_dispose", func(payload string, _ *console.Session) (string, error) {
		n, err := pageArg(payload, "pf_dispose")
		if err != nil {
			return "", err
		}
		if err := pf.DisposePage(st.pfFD, n); err != nil {
			return "", err
		}
		delete(st.pages, n)
		return "", nil
	}, "Dispose a page. usage: pf_dispose <page_num>")

	c.AddCommand("pf_get", func(payload string, _ *console.Session) (string, error) {
		n, err := pageArg(payload, "pf_get")
		if err != nil {
			return "", err
		}
		page, err := pf.GetThisPage(st.pfFD, n)
		if err != nil {
			return "", err
		}
		st.pages[n] = page
		return fmt.Sprintf("%q", string(page.Data()[:64])), nil
	}, "Pin a page and print its first 64 bytes. usage: pf_get <page_num>")

	c.AddCommand("pf_write", func(payload string, _ *console.Session) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) < 3 {
			return "", fmt.Errorf("usage: pf_write <page_num> <text>")
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return "", err
		}
		page, ok := st.pages[n]
		if !ok {
			return "", fmt.Errorf("page %d not pinned; pf_get it first", n)
		}
		text := strings.Join(fields[2:], " ")
		copy(page.Data(), text)
		return "", pf.MarkDirty(st.pfFD, n)
	}, "Write text to the start of a pinned page. usage: pf_write <page_num> <text>")

	c.AddCommand("pf_unfix", func(payload string, _ *console.Session) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) != 3 {
			return "", fmt.Errorf("usage: pf_unfix <page_num> <dirty:0|1>")
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return "", err
		}
		dirty := fields[2] == "1"
		if err := pf.UnfixPage(st.pfFD, n, dirty); err != nil {
			return "", err
		}
		delete(st.pages, n)
		return "", nil
	}, "Unfix a page. usage: pf_unfix <page_num> <dirty:0|1>")

	c.AddCommand("pf_stats", func(payload string, _ *console.Session) (string, error) {
		s := pf.GetStats()
		return fmt.Sprintf("logical_reads=%d physical_reads=%d physical_writes=%d hit_rate=%.3f",
			s.LogicalReads, s.PhysicalReads, s.PhysicalWrites, s.HitRate()), nil
	}, "Print I/O statistics. usage: pf_stats")
}

func registerRHFCommands(c *console.Console, st *state) {
	c.AddCommand("rhf_insert", func(payload string, _ *console.Session) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) < 2 {
			return "", fmt.Errorf("usage: rhf_insert <text>")
		}
		text := strings.Join(fields[1:], " ")
		rid, err := rhf.InsertRecord(rhf.NewFD(st.pfFD), []byte(text))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rid=(%d,%d)", rid.PageNum, rid.SlotNum), nil
	}, "Insert a record. usage: rhf_insert <text>")

	c.AddCommand("rhf_get", func(payload string, _ *console.Session) (string, error) {
		rid, err := ridArg(payload, "rhf_get")
		if err != nil {
			return "", err
		}
		record, err := rhf.GetRecord(rhf.NewFD(st.pfFD), rid)
		if err != nil {
			return "", err
		}
		return string(record), nil
	}, "Get a record. usage: rhf_get <page_num> <slot_num>")

	c.AddCommand("rhf_delete", func(payload string, _ *console.Session) (string, error) {
		rid, err := ridArg(payload, "rhf_delete")
		if err != nil {
			return "", err
		}
		return "", rhf.DeleteRecord(rhf.NewFD(st.pfFD), rid)
	}, "Delete a record. usage: rhf_delete <page_num> <slot_num>")

	c.AddCommand("rhf_scan_start", func(payload string, _ *console.Session) (string, error) {
		st.scan = rhf.StartScan(rhf.NewFD(st.pfFD))
		return "", nil
	}, "Start a scan. usage: rhf_scan_start")

	c.AddCommand("rhf_scan_next", func(payload string, _ *console.Session) (string, error) {
		if st.scan == nil {
			return "", fmt.Errorf("no scan started")
		}
		record, rid, err := st.scan.Next()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rid=(%d,%d) %q", rid.PageNum, rid.SlotNum, string(record)), nil
	}, "Advance a scan. usage: rhf_scan_next")

	c.AddCommand("rhf_scan_end", func(payload string, _ *console.Session) (string, error) {
		if st.scan == nil {
			return "", nil
		}
		err := st.scan.End()
		st.scan = nil
		return "", err
	}, "End a scan. usage: rhf_scan_end")
}

func pageArg(payload, cmd string) (int64, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <page_num>", cmd)
	}
	return strconv.ParseInt(fields[1], 10, 64)
}

func ridArg(payload, cmd string) (rhf.RID, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return rhf.RID{}, fmt.Errorf("usage: %s <page_num> <slot_num>", cmd)
	}
	pn, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return rhf.RID{}, err
	}
	sn, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return rhf.RID{}, err
	}
	return rhf.RID{PageNum: pn, SlotNum: int32(sn)}, nil
}
