package storage

import (
	"path"
	"strings"
)

// fileNameReplacer strips characters that are unsafe in file names or that
// break wikilinks.
var fileNameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", " -", "*", "", "?", "", "\"", "'",
	"<", "", ">", "", "|", "-", "#", "", "^", "", "[", "", "]", "",
)

// FileName turns a note title into a safe .md file name.
func FileName(title string) string {
	name := strings.Join(strings.Fields(fileNameReplacer.Replace(title)), " ")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "Untitled"
	}
	return name + ".md"
}

// Join builds a slash-separated vault path.
func Join(folder, name string) string {
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// Stem returns the file name of p without directory or extension.
func Stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
