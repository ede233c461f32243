// Package dsmdec is a cycle-accurate model of a delta-sigma decimation
// filter: a CIC, a droop-compensation FIR, and two halfbands, clocked on
// Akita. The command-line tool lives in cmd/dsmdec.
package dsmdec
