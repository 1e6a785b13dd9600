package toolchain

import (
	"regexp"
	"strings"
)

// SynthesizedEntry is the class name used when the source declares no class.
const SynthesizedEntry = "Main"

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	publicClass  = regexp.MustCompile(`\bpublic\s+(?:(?:final|abstract|strictfp)\s+)*class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	anyClass     = regexp.MustCompile(`\bclass\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
)

// DeriveEntryPoint finds the class a Java program should be launched with.
// A public class wins over any other class declaration; comments are ignored.
func DeriveEntryPoint(source string) (string, bool) {
	stripped := blockComment.ReplaceAllString(source, " ")
	stripped = lineComment.ReplaceAllString(stripped, "")

	if m := publicClass.FindStringSubmatch(stripped); m != nil {
		return m[1], true
	}
	if m := anyClass.FindStringSubmatch(stripped); m != nil {
		return m[1], true
	}
	return "", false
}

// SynthesizeMain wraps bare statements in a Main class so fragments can run.
// The submitted text becomes the body of main verbatim.
func SynthesizeMain(body string) string {
	var b strings.Builder
	b.WriteString("public class ")
	b.WriteString(SynthesizedEntry)
	b.WriteString(" {\n    public static void main(String[] args) throws Exception {\n")
	b.WriteString(body)
	b.WriteString("\n    }\n}\n")
	return b.String()
}

// PrepareSource returns the entry point name and the text to write for a workspace.
// stem is the workspace id used as the entry point of fixed-entry languages.
func PrepareSource(spec Spec, stem, source string) (entry, text string) {
	if spec.EntryPoint != EntryFromSource {
		return stem, source
	}
	if name, ok := DeriveEntryPoint(source); ok {
		return name, source
	}
	return SynthesizedEntry, SynthesizeMain(source)
}
