// Package worker runs the background polling loop that advances remote
// generation jobs to completion. One worker runs per distinct task table;
// it polls the remote API on a fixed interval, downloads finished
// artifacts, fits them to their target duration, and records every
// transition through the task store. Once all jobs have been terminal for
// several consecutive rounds the worker runs a repair pass and exits.
package worker
