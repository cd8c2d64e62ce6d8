// Command inspect dumps stored delivery records from a BadgerDB directory,
// for debugging a relay database offline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

type storedRecord struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	IsGroup  bool   `json:"is_group"`
	At       int64  `json:"at"`
}

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	prefix := flag.String("prefix", "dm:", "Key prefix to scan (dm: or room:)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Sender", "Receiver", "Group", "Timestamp", "Content"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		scanPrefix := []byte(*prefix)
		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			item := it.Item()
			var record storedRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			table.Append([]string{
				string(item.Key()),
				record.Sender,
				record.Receiver,
				fmt.Sprintf("%t", record.IsGroup),
				time.Unix(0, record.At).UTC().Format(time.RFC3339),
				record.Content,
			})
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d record(s)\n", count)
}
