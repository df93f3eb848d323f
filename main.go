package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/RustAudio/rimd/smf"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	trackStyle = lipgloss.NewStyle().Bold(true)
)

func main() {
	inputFile := ""
	outputFile := ""
	verbose := false

	flag.StringVar(&inputFile, "i", "", "input .mid file")
	flag.StringVar(&outputFile, "o", "", "output .mid file; when set the input is re-encoded instead of dumped")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Parse()

	if inputFile == "" {
		flag.Usage()
		return
	}
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	in, err := os.Open(inputFile)
	if err != nil {
		logrus.Fatal(err)
	}
	defer in.Close()

	file, err := smf.Decode(in)
	if err != nil {
		logrus.Fatalf("decoding %s: %v", inputFile, err)
	}

	if outputFile != "" {
		out, err := os.Create(outputFile)
		if err != nil {
			logrus.Fatal(err)
		}
		defer out.Close()
		if err := file.Encode(out); err != nil {
			logrus.Fatalf("encoding %s: %v", outputFile, err)
		}
		return
	}

	dump(file)
}

func dump(f *smf.File) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("format: %s, tracks: %d, division: %s",
		f.Format, len(f.Tracks), f.Division)))
	for i, t := range f.Tracks {
		fmt.Println(trackStyle.Render(fmt.Sprintf("%d: %s", i+1, t)))
		for _, ev := range t.Events {
			fmt.Printf("  %s\n", ev)
		}
	}
}
