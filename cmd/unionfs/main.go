// Command unionfs mounts a two-branch union filesystem over two host
// directories and exercises lookup, copy-up, directory merging, and
// whiteouts from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/twobranch/unionfs"
)

var (
	roDir   string
	rwDir   string
	verbose bool
)

func newUFS() *unionfs.UnionFS {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	return unionfs.New(
		unionfs.WithReadOnlyBranch(afero.NewBasePathFs(afero.NewOsFs(), roDir)),
		unionfs.WithReadWriteBranch(afero.NewBasePathFs(afero.NewOsFs(), rwDir)),
		unionfs.WithLogger(logrus.NewEntry(log)),
		unionfs.WithStatCache(true, 0),
	)
}

func main() {
	root := &cobra.Command{
		Use:   "unionfs",
		Short: "Inspect and exercise a two-branch union filesystem",
	}
	root.PersistentFlags().StringVar(&roDir, "ro", "", "read-only branch directory")
	root.PersistentFlags().StringVar(&rwDir, "rw", "", "read-write branch directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	root.MarkPersistentFlagRequired("ro")
	root.MarkPersistentFlagRequired("rw")

	root.AddCommand(lsCmd(), copyUpCmd(), describeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "list the merged contents of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ufs := newUFS()
			entries, err := afero.ReadDir(ufs, args[0])
			if err != nil {
				return err
			}
			for _, e := range entries {
				tag := "-"
				if e.IsDir() {
					tag = "d"
				}
				fmt.Printf("%s %8d %s\n", tag, e.Size(), e.Name())
			}
			return nil
		},
	}
}

func copyUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp-up <path>",
		Short: "force a copy-up of an RO-origin file without modifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ufs := newUFS()
			f, err := ufs.OpenFile(args[0], os.O_RDWR, 0)
			if err != nil {
				return err
			}
			return f.Close()
		},
	}
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <path>",
		Short: "print the merged attributes of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ufs := newUFS()
			info, err := ufs.Stat(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("name:  %s\n", info.Name())
			fmt.Printf("mode:  %s\n", info.Mode())
			fmt.Printf("size:  %d\n", info.Size())
			fmt.Printf("isDir: %v\n", info.IsDir())
			return nil
		},
	}
}
