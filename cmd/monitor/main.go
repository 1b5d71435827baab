//go:build !tinygo

// Command monitor tails the firmware log from the board's UART and colours
// runtime lines by component; halt reports stand out in red.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.bug.st/serial"
)

func main() {
	port := flag.String("port", "", "Serial port (default: first port found).")
	baud := flag.Int("baud", 115200, "Baud rate.")
	colorMode := flag.String("color", "auto", "Colour output: auto, always or never.")
	list := flag.Bool("list", false, "List serial ports and exit.")
	flag.Parse()

	if err := run(*port, *baud, *colorMode, *list); err != nil {
		fmt.Fprintln(os.Stderr, "monitor:", err)
		os.Exit(1)
	}
}

func run(port string, baud int, colorMode string, list bool) error {
	if list {
		ports, err := serial.GetPortsList()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	useColor, err := wantColor(colorMode, os.Stdout.Fd())
	if err != nil {
		return err
	}

	if port == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}
		if len(ports) == 0 {
			return errors.New("no serial ports found, use -port")
		}
		port = ports[0]
	}

	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return fmt.Errorf("open %s: %w", port, err)
	}
	defer p.Close()

	var out io.Writer = os.Stdout
	if useColor {
		out = colorable.NewColorableStdout()
	}
	fmt.Fprintf(os.Stderr, "monitor: %s at %d baud\n", port, baud)
	return copyLines(out, p, useColor)
}

func wantColor(mode string, fd uintptr) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
	}
	return false, fmt.Errorf("unknown -color mode %q", mode)
}

// copyLines copies src to dst line by line, colouring each line when color
// is set. It returns nil at EOF.
func copyLines(dst io.Writer, src io.Reader, color bool) error {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		line := sc.Text()
		if color {
			line = colorize(line)
		}
		if _, err := fmt.Fprintln(dst, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}
