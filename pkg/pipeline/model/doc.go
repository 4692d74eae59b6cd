// Package model provides the data structures shared by the pipeline package and its option packages.
// It defines the step metadata handed to pipeline options and the interface those options implement.
package model
