// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkframe/utility/kar"
)

func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}

var (
	author   = flag.String("author", currentUserName(), "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive")
	compress = flag.String("c", "", "Compress the given file/folder")
	dstFile  = flag.String("f", "out.kar", "Destination file, or directory when extracting")
	list     = flag.String("l", "", "List the files of the given archive")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal(errors.New("only one operation at a time"))
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*extract, *dstFile)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			filesToCompress = append(filesToCompress, path)
		}
		return nil
	}); err != nil {
		return err
	}

	builder := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	for _, path := range filesToCompress {
		name, err := filepath.Rel(src, path)
		if err != nil || name == "." {
			name = filepath.Base(path)
		}
		if err := addFile(builder, filepath.ToSlash(name), path); err != nil {
			return err
		}
		log.WithField("file", name).Info("added")
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"archive": dst, "bytes": written, "files": len(filesToCompress)}).Info("archive written")
	return nil
}

func addFile(builder *kar.Builder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return builder.Add(name, f)
}

func extractFiles(src, dst string) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, name := range ar.Names() {
		path := filepath.Join(dst, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dst, path); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("%s: path leaves %s", name, dst)
		}
		if err := extractFile(ar, name, path); err != nil {
			return err
		}
		log.WithField("file", name).Info("extracted")
	}
	return nil
}

func extractFile(ar *kar.Archive, name, path string) error {
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listFiles(src string) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	h := ar.Header()
	log.WithFields(log.Fields{
		"author":  h.Author,
		"version": h.Version,
		"created": time.Unix(h.DateCreated, 0),
	}).Info(src)
	for _, e := range h.Index {
		log.WithFields(log.Fields{
			"size":       e.Size,
			"compressed": e.CompressedSize,
		}).Info(e.Name)
	}
	return nil
}
