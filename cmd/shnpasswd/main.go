// Command shnpasswd administers the bcrypt-hashed local passwd file used
// by shnd.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/jameskeane/bcrypt"

	"blitter.com/go/shannon/termmode"
)

func main() {
	var pfName, userName string
	flag.StringVar(&userName, "u", "", "username")
	flag.StringVar(&pfName, "f", "/etc/shn.passwd", "passwd file")
	flag.Parse()

	if userName == "" {
		log.Fatal("specify username with -u")
	}

	fmt.Print("New Password: ")
	ab, err := termmode.ReadPassword(os.Stdin.Fd())
	fmt.Println()
	if err != nil {
		log.Fatal(err)
	}
	newpw := string(ab)

	fmt.Print("Confirm: ")
	ab, err = termmode.ReadPassword(os.Stdin.Fd())
	fmt.Println()
	if err != nil {
		log.Fatal(err)
	}
	if string(ab) != newpw {
		log.Fatal("passwords do not match")
	}

	salt, err := bcrypt.Salt(12)
	if err != nil {
		log.Fatal("bcrypt.Salt failed:", err)
	}
	hash, err := bcrypt.Hash(newpw, salt)
	if err != nil || !bcrypt.Match(newpw, hash) {
		log.Fatal("bcrypt.Hash/Match failed:", err)
	}

	if err := upsertRecord(pfName, userName, salt, hash); err != nil {
		log.Fatal(err)
	}
}

func upsertRecord(pfName, uname, salt, hash string) error {
	b, err := ioutil.ReadFile(pfName)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var records [][]string
	if len(b) > 0 {
		r := csv.NewReader(bytes.NewReader(b))
		r.Comma = ':'
		r.Comment = '#'
		r.FieldsPerRecord = 3
		records, err = r.ReadAll()
		if err != nil {
			return err
		}
	}

	found := false
	for i := range records {
		if records[i][0] == uname {
			records[i][1] = salt
			records[i][2] = hash
			found = true
		}
	}
	if !found {
		records = append(records, []string{uname, salt, hash})
	}

	outFile, err := ioutil.TempFile("", "shn-passwd")
	if err != nil {
		return err
	}
	w := csv.NewWriter(outFile)
	w.Comma = ':'
	if err := w.Write([]string{"#username", "salt", "hash"}); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	if err := w.Error(); err != nil {
		return err
	}
	if err := outFile.Close(); err != nil {
		return err
	}

	_ = os.Remove(pfName)
	return os.Rename(outFile.Name(), pfName)
}
