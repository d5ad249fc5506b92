package main

import (
	"fmt"
	"os"

	"github.com/rawbytedev/lidl"
	"github.com/rawbytedev/lidl/pkg/dump"
	"github.com/rawbytedev/lidl/pkg/frame"
	"github.com/rawbytedev/lidl/pkg/mapped"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func demoCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "write \"hello rust\" into a 128 byte buffer and read it back",
		Action: func(c *cli.Context) error {
			buf := make([]byte, 128)
			b := lidl.NewBuilder(buf, lidl.Options{})
			s, err := lidl.NewString(b, "hello rust")
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"segment": s.Segment().String(),
				"used":    b.Len(),
			}).Debug("String written")

			r, err := lidl.ReadString(buf)
			if err != nil {
				return err
			}
			v, err := r.Get()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, v)
			fmt.Fprintf(c.App.Writer, "% x\n", b.Bytes())
			return nil
		},
	}
}

func packCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "build a message holding the given strings and write it framed",
		ArgsUsage: "STRING...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output file"},
			&cli.StringFlag{Name: "codec", Value: "none", Usage: "none, zstd, s2 or lz4"},
			&cli.IntFlag{Name: "size", Value: 4096, Usage: "builder buffer size in bytes"},
		},
		Action: func(c *cli.Context) error {
			codec, err := frame.ParseCodec(c.String("codec"))
			if err != nil {
				return err
			}
			if c.Int("size") < 0 {
				return fmt.Errorf("size %d: %w", c.Int("size"), lidl.ErrNegativeSize)
			}
			b := lidl.NewBuilder(make([]byte, c.Int("size")), lidl.Options{})
			msg, err := buildStrings(b, c.Args().Slice())
			if err != nil {
				return err
			}
			f, err := frame.Encode(msg, frame.Options{Codec: codec})
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("out"), f, 0o644); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"file":    c.String("out"),
				"strings": c.Args().Len(),
				"message": len(msg),
				"framed":  len(f),
				"codec":   codec.String(),
			}).Info("Message packed")
			return nil
		},
	}
}

func unpackCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "print the strings held by packed files",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			results := make([][]string, len(paths))
			var g errgroup.Group
			for i, path := range paths {
				g.Go(func() error {
					var vals []string
					err := withMessage(path, func(msg []byte) (err error) {
						vals, err = readStrings(msg)
						return err
					})
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					log.WithField("file", path).WithField("strings", len(vals)).Debug("File unpacked")
					results[i] = vals
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for i, path := range paths {
				for _, v := range results[i] {
					fmt.Fprintf(c.App.Writer, "%s: %s\n", path, v)
				}
			}
			return nil
		},
	}
}

func inspectCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "print a YAML report of a packed file",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("inspect takes exactly one file, got %d", c.Args().Len())
			}
			path := c.Args().First()
			var vals []string
			var size int
			err := withMessage(path, func(msg []byte) (err error) {
				size = len(msg)
				vals, err = readStrings(msg)
				return err
			})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			// rebuild with tracing on to recover the allocation layout
			b := lidl.NewBuilder(make([]byte, size), lidl.Options{Trace: true})
			if _, err := buildStrings(b, vals); err != nil {
				return err
			}
			log.WithField("file", path).WithField("allocations", len(b.Allocations())).Debug("File inspected")
			return dump.Write(c.App.Writer, dump.FromBuilder(b, vals))
		},
	}
}

// buildStrings writes vals as a string vector followed by a reference to it,
// which is the message's root.
func buildStrings(b *lidl.Builder, vals []string) ([]byte, error) {
	v, err := lidl.NewStringVector(b, vals)
	if err != nil {
		return nil, err
	}
	if _, err := lidl.NewPtr(b, v.Segment()); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func readStrings(msg []byte) ([]string, error) {
	root, err := lidl.Root(msg, lidl.PtrSize)
	if err != nil {
		return nil, err
	}
	p, err := lidl.PtrFromBuffer(root)
	if err != nil {
		return nil, err
	}
	v, err := lidl.Deref(p, lidl.StringVectorFromBuffer)
	if err != nil {
		return nil, err
	}
	return v.Strings()
}

// withMessage maps a packed file and calls fn with its message. The message
// may alias the mapping and is only valid during fn.
func withMessage(path string, fn func(msg []byte) error) error {
	m, err := mapped.Open(path)
	if err != nil {
		return err
	}
	defer m.Close()
	msg, err := frame.Decode(m.Bytes(), frame.Options{})
	if err != nil {
		return err
	}
	return fn(msg)
}
