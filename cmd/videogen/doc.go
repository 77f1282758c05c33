// Command videogen turns a project script into a finished video: it
// submits each line to a remote generation service, polls the jobs to
// completion, and assembles the downloaded clips into one normalized,
// concatenated, optionally subtitled output.
package main
