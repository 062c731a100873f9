package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/waveset/waveform"
)

type Config struct {
	Action string `usage:"what to do: LS | IMPORT"`
	Store  string `usage:"waveform store file"`
	Input  string `usage:"json lines to import, stdin when empty"`
}

func main() {

	c := Config{
		Action: "ls",
	}
	goconfig.Read(&c)

	if c.Store == "" {
		log.Fatal("store is required")
	}

	var err error
	switch strings.ToUpper(c.Action) {
	case "LS":
		err = list(c.Store, os.Stdout)
	case "IMPORT":
		err = importStore(c.Store, c.Input)
	default:
		log.Fatalf("Unknown action %s", c.Action)
	}

	if err != nil {
		log.Fatal("ERROR: ", err.Error())
	}
}

func list(filename string, out io.Writer) error {

	s, err := waveform.Open(filename)
	if err != nil {
		return err
	}
	defer s.Close()

	s.Names(func(name string) bool {
		w, _, e := s.Get(name)
		if e != nil {
			err = e
			return false
		}
		fmt.Fprintf(out, "%s\t%dx%d\n", name, w.Channels, w.Samples)
		return true
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d waveforms\n", s.Len())
	return nil
}

func importStore(filename, input string) error {

	var r io.Reader = os.Stdin
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	w, err := waveform.Create(filename)
	if err != nil {
		return err
	}

	n, err := waveform.Import(r, w)
	if err != nil {
		w.Close()
		return err
	}

	err = w.Close()
	if err != nil {
		return err
	}

	log.Println("imported", n, "waveforms into", filename)
	return nil
}
