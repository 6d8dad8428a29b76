package rhf_test

import (
	"errors"
	"fmt"
	"testing"

	"pfheap/pkg/rhf"
	"pfheap/test/utils"
)

func openHeap(t *testing.T) rhf.FD {
	utils.ResetPF(t)
	name := utils.GetTempDbFile(t)
	if err := rhf.CreateFile(name); err != nil {
		t.Fatal(err)
	}
	fd, err := rhf.OpenFile(name)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rhf.CloseFile(fd) })
	return fd
}

func TestInsertGetRoundTrip(t *testing.T) {
	fd := openHeap(t)

	rid, err := rhf.InsertRecord(fd, []byte("hello, heap"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := rhf.GetRecord(fd, rid)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello, heap" {
		t.Fatalf("got %q, expected %q", got, "hello, heap")
	}
}

func TestInsertTooLongFails(t *testing.T) {
	fd := openHeap(t)

	oversized := make([]byte, rhf.MaxRecordLength+1)
	if _, err := rhf.InsertRecord(fd, oversized); !errors.Is(err, rhf.ErrPageFull) {
		t.Fatalf("expected ErrPageFull for an oversized record, got %v", err)
	}
}

func TestDeleteIsIdempotentlyRejected(t *testing.T) {
	fd := openHeap(t)

	rid, err := rhf.InsertRecord(fd, []byte("gone soon"))
	if err != nil {
		t.Fatal(err)
	}
	if err := rhf.DeleteRecord(fd, rid); err != nil {
		t.Fatal(err)
	}
	if _, err := rhf.GetRecord(fd, rid); !errors.Is(err, rhf.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord after delete, got %v", err)
	}
	if err := rhf.DeleteRecord(fd, rid); !errors.Is(err, rhf.ErrNoRecord) {
		t.Fatalf("expected a second delete of the same rid to report ErrNoRecord, got %v", err)
	}
}

func TestGetInvalidSlotFails(t *testing.T) {
	fd := openHeap(t)

	rid, err := rhf.InsertRecord(fd, []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	bad := rid
	bad.SlotNum = 99
	if _, err := rhf.GetRecord(fd, bad); !errors.Is(err, rhf.ErrInvalidRID) {
		t.Fatalf("expected ErrInvalidRID, got %v", err)
	}
}

func TestScanSkipsDeletedRecords(t *testing.T) {
	fd := openHeap(t)

	var rids []rhf.RID
	for i := 0; i < 20; i++ {
		rid, err := rhf.InsertRecord(fd, []byte(fmt.Sprintf("record-%02d", i)))
		if err != nil {
			t.Fatal(err)
		}
		rids = append(rids, rid)
	}
	for i, rid := range rids {
		if i%2 == 0 {
			if err := rhf.DeleteRecord(fd, rid); err != nil {
				t.Fatal(err)
			}
		}
	}

	scan := rhf.StartScan(fd)
	defer scan.End()
	count := 0
	for {
		_, _, err := scan.Next()
		if errors.Is(err, rhf.ErrEOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		count++
	}
	if count != 10 {
		t.Fatalf("expected 10 surviving records, got %d", count)
	}
}

// TestInsertScanDeleteEvensScan is scenario 4: insert 1000
// variable-length records, scan all of them, delete every even-ID
// record, then scan again and check that only the 500 odd-ID records
// remain.
func TestInsertScanDeleteEvensScan(t *testing.T) {
	fd := openHeap(t)

	const n = 1000
	rids := make([]rhf.RID, n)
	for id := 0; id < n; id++ {
		length := 18 + (id % 41) // spans [18, 58]
		record := make([]byte, length)
		copy(record, fmt.Sprintf("%d:", id))
		rid, err := rhf.InsertRecord(fd, record)
		if err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
		rids[id] = rid
	}

	if got := scanCount(t, fd); got != n {
		t.Fatalf("expected %d records after insert, got %d", n, got)
	}

	for id := 0; id < n; id += 2 {
		if err := rhf.DeleteRecord(fd, rids[id]); err != nil {
			t.Fatalf("delete %d: %v", id, err)
		}
	}

	scan := rhf.StartScan(fd)
	defer scan.End()
	count := 0
	for {
		record, _, err := scan.Next()
		if errors.Is(err, rhf.ErrEOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		var id int
		if _, err := fmt.Sscanf(string(record), "%d:", &id); err != nil {
			t.Fatalf("unparseable record %q: %v", record, err)
		}
		if id%2 == 0 {
			t.Fatalf("record %d should have been deleted", id)
		}
		count++
	}
	if count != n/2 {
		t.Fatalf("expected %d surviving records, got %d", n/2, count)
	}
}

func scanCount(t *testing.T, fd rhf.FD) int {
	scan := rhf.StartScan(fd)
	defer scan.End()
	count := 0
	for {
		_, _, err := scan.Next()
		if errors.Is(err, rhf.ErrEOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		count++
	}
	return count
}
