/*
Copyright © 2025 the DRP authors.
This file is part of DRP.

DRP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

DRP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with DRP.  If not, see <http://www.gnu.org/licenses/>.
*/

package drp

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/rockphysics/drp/rockphysics"
	"github.com/tealeg/xlsx"
)

// Outputter evaluates user-defined expressions over the variables a
// volume provides: one phase-fraction variable per phase (Phase0,
// Phase1, … plus the phase's label name when it is a plain
// identifier) and the summary variables Mean, StdDev, Min, Max,
// Unique, Voxels, and VoxelSize.
//
// outputVariables maps result names to expressions, which can refer
// to other output variables as well as to the built-in ones, e.g.
//
//	{"Porosity": "Pore / (Pore + Solid)", "PorosityPct": "Porosity * 100"}
//
// Variable names that are not plain identifiers can be written in
// braces: "{Total Pore} * 100".
//
// Functions are defined in the outputFunctions variable.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	modelVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes a new Outputter and adds a set of default
// output functions: exp, log, sqrt, abs, min, and max.
//
// If fileName is not empty, Output also saves the results there, as
// an xlsx workbook when the name ends in .xlsx and as plain
// "name = value" text otherwise.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("drp: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return (float64)(math.Exp(arg[0].(float64))), nil
		},
		"log": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("drp: got %d arguments for function 'log', but needs 1", len(arg))
			}
			return (float64)(math.Log(arg[0].(float64))), nil
		},
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("drp: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return (float64)(math.Sqrt(arg[0].(float64))), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("drp: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return (float64)(math.Abs(arg[0].(float64))), nil
		},
		"min": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("drp: got %d arguments for function 'min', but needs 2", len(arg))
			}
			return (float64)(math.Min(arg[0].(float64), arg[1].(float64))), nil
		},
		"max": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("drp: got %d arguments for function 'max', but needs 2", len(arg))
			}
			return (float64)(math.Max(arg[0].(float64), arg[1].(float64))), nil
		},
	}

	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}

	o := Outputter{
		fileName:        fileName,
		outputVariables: make(map[string]string, len(outputVariables)),
		outputFunctions: defaultOutputFuncs,
	}
	for key, val := range outputVariables {
		o.outputVariables[key] = val
	}

	for _, val := range o.outputVariables {
		regx, _ := regexp.Compile("\\{(.*?)\\}")
		matches := regx.FindAllString(val, -1)
		if len(matches) > 0 {
			for _, m := range matches {
				if strings.Count(m, "{") > 1 || strings.Count(m, "}") > 1 {
					return nil, fmt.Errorf("drp: unsupported use of braces {} in expression %q", val)
				}
				o.outputVariables[m] = m[1 : len(m)-1]
			}
		}
	}

	err := o.checkForDerivatives()

	for k1, v1 := range o.outputVariables {
		if strings.Contains(k1, "{") {
			for k2, v2 := range o.outputVariables {
				if k1 != k2 {
					o.outputVariables[k2] = strings.Replace(v2, v1, "{"+v1+"}", -1)
				}
			}
			delete(o.outputVariables, k1)
		}
	}

	return &o, err
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]string)
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = val
		}
	}
	return result
}

func checkPrefix(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return regexp.MatchString("[a-zA-Z0-9_]", string(s[0]))
}

func checkSuffix(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return regexp.MatchString("[a-zA-Z0-9_]", string(s[len(s)-1]))
}

// checkForDerivatives identifies the unique input variables that are
// required to calculate the requested output variables, replacing any
// user-defined output variable showing up in a subsequent expression
// by its defining expression.
func (o *Outputter) checkForDerivatives() error {
	o.modelVariables = make([]string, 0, len(o.outputVariables))
	for key, val := range o.outputVariables {
		o.outputVariables[key] = strings.Replace(val, "{", "", -1)
		o.outputVariables[key] = strings.Replace(o.outputVariables[key], "}", "", -1)
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(o.outputVariables[key], o.outputFunctions)
		if err != nil {
			return fmt.Errorf("drp: output variable %s: %v", key, err)
		}
		uniqueVars := removeDuplicates(expression.Vars())
		o.modelVariables = append(o.modelVariables, uniqueVars...)
		var isSuffix bool
		var isPrefix bool
		for _, uniqueVar := range uniqueVars {
			if o.outputVariables[uniqueVar] != "" && o.outputVariables[uniqueVar] != uniqueVar {
				// To verify that an instance of a variable name is
				// not part of a longer variable name, the text before
				// and after it is analyzed. For example, 'Pore' is
				// not a standalone variable in an expression if it
				// appears as 'PoreThroat'.
				splitVal := strings.Split(val, uniqueVar)
				for i := 0; i < len(splitVal)-1; i++ {
					isSuffix, err = checkSuffix(splitVal[i])
					if err != nil {
						return fmt.Errorf("drp: output variable %s: %v", key, err)
					}
					isPrefix, err = checkPrefix(splitVal[i+1])
					if err != nil {
						return fmt.Errorf("drp: output variable %s: %v", key, err)
					}
					splitVal[i] = splitVal[i] + uniqueVar
					if !isSuffix && !isPrefix {
						splitVal[i] = strings.Replace(splitVal[i], uniqueVar, "("+o.outputVariables[uniqueVar]+")", -1)
					}
				}
				o.outputVariables[key] = strings.Join(splitVal, "")
				return o.checkForDerivatives()
			}
		}
	}
	o.modelVariables = removeDuplicates(o.modelVariables)
	return nil
}

var identifierRE = regexp.MustCompile(`^[A-Za-z]\w*$`)

// outputVars collects the variables the volume provides for output
// expressions.
func (v *Volume) outputVars() map[string]interface{} {
	stats := v.Statistics()
	vars := map[string]interface{}{
		"Mean":      stats.Mean,
		"StdDev":    stats.StdDev,
		"Min":       stats.Min,
		"Max":       stats.Max,
		"Unique":    float64(stats.Unique),
		"Voxels":    float64(len(v.Data.Elements)),
		"VoxelSize": v.VoxelSize,
	}
	for p, f := range v.PhaseFractions() {
		if p >= 0 {
			vars[fmt.Sprintf("Phase%d", p)] = f
		}
		if name, ok := v.Labels[p]; ok && identifierRE.MatchString(name) {
			vars[name] = f
		}
	}
	return vars
}

// OutputOptions lists the variable names expressions can refer to,
// sorted.
func (v *Volume) OutputOptions() []string {
	vars := v.outputVars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckOutputVars ensures the output variables can be calculated from
// the volume.
func (o *Outputter) CheckOutputVars(v *Volume) error {
	available := v.outputVars()
	for _, name := range o.modelVariables {
		if _, ok := available[name]; !ok {
			return fmt.Errorf("drp: undefined variable name '%s'", name)
		}
	}
	return nil
}

// Output evaluates the output variable expressions against the
// volume, saving the results to the Outputter's file when one was
// named.
func (o *Outputter) Output(v *Volume) (map[string]float64, error) {
	if err := o.CheckOutputVars(v); err != nil {
		return nil, err
	}
	vars := v.outputVars()
	results := make(map[string]float64, len(o.outputVariables))
	for name, expr := range o.outputVariables {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("drp: output variable %s: %v", name, err)
		}
		result, err := expression.Evaluate(vars)
		if err != nil {
			return nil, fmt.Errorf("drp: evaluating %s: %v", name, err)
		}
		value, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("drp: output variable %s evaluates to %T, not a number", name, result)
		}
		results[name] = value
	}

	if o.fileName == "" {
		return results, nil
	}
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	if filepath.Ext(o.fileName) == ".xlsx" {
		file := xlsx.NewFile()
		sheet, err := file.AddSheet("derived")
		if err != nil {
			return nil, fmt.Errorf("drp: writing %s: %v", o.fileName, err)
		}
		for _, name := range names {
			row := sheet.AddRow()
			row.AddCell().SetString(name)
			row.AddCell().SetFloat(results[name])
		}
		if err := file.Save(o.fileName); err != nil {
			return nil, fmt.Errorf("drp: writing %s: %v", o.fileName, err)
		}
		return results, nil
	}
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s = %g\n", name, results[name])
	}
	if err := os.WriteFile(o.fileName, []byte(b.String()), 0644); err != nil {
		return nil, fmt.Errorf("drp: writing %s: %v", o.fileName, err)
	}
	return results, nil
}

// FractionTable formats the phase inventory of a volume as a
// right-aligned text table of phase value, voxel count and percent
// fraction, with a name column when the volume carries labels and a
// summary row at the bottom.
func FractionTable(v *Volume) string {
	counts := v.PhaseCounts()
	phases := v.Phases()
	total := 0
	for _, c := range counts {
		total += c
	}

	withNames := len(v.Labels) > 0
	headers := []string{"Phase", "Count", "Fraction"}
	if withNames {
		headers = append(headers, "Name")
	}
	rows := [][]string{headers}
	var pctSum float64
	for _, p := range phases {
		pct := float64(counts[p]) / float64(total) * 100
		pctSum += pct
		row := []string{
			strconv.Itoa(p),
			strconv.Itoa(counts[p]),
			fmt.Sprintf("%.4f", pct),
		}
		if withNames {
			row = append(row, v.Labels[p])
		}
		rows = append(rows, row)
	}
	footer := []string{
		strconv.Itoa(len(phases)),
		strconv.Itoa(total),
		fmt.Sprintf("%.4f", pctSum),
	}
	if withNames {
		footer = append(footer, "")
	}
	rows = append(rows, footer)

	widths := make([]int, len(headers))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%*s", widths[i], cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFractionTable saves the phase fraction table. A path with no
// extension is taken as a directory, and the table gets the next free
// fraction_NNN.txt name inside it.
func WriteFractionTable(v *Volume, path string) error {
	if err := v.check3d(); err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("drp: writing fraction table: %v", err)
		}
		existing, err := filepath.Glob(filepath.Join(path, "fraction_*.txt"))
		if err != nil {
			return fmt.Errorf("drp: writing fraction table: %v", err)
		}
		highest := 0
		for _, name := range existing {
			base := strings.TrimSuffix(filepath.Base(name), ".txt")
			if i, err := strconv.Atoi(strings.TrimPrefix(base, "fraction_")); err == nil && i > highest {
				highest = i
			}
		}
		path = filepath.Join(path, fmt.Sprintf("fraction_%03d.txt", highest+1))
	}
	if err := os.WriteFile(path, []byte(FractionTable(v)), 0644); err != nil {
		return fmt.Errorf("drp: writing fraction table: %v", err)
	}
	return nil
}

// WriteFractionXLSX saves the phase inventory as an xlsx workbook.
func WriteFractionXLSX(v *Volume, path string) error {
	if err := v.check3d(); err != nil {
		return err
	}
	counts := v.PhaseCounts()
	total := 0
	for _, c := range counts {
		total += c
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("fractions")
	if err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}
	header := sheet.AddRow()
	for _, h := range []string{"Phase", "Count", "Fraction", "Name"} {
		header.AddCell().SetString(h)
	}
	for _, p := range v.Phases() {
		row := sheet.AddRow()
		row.AddCell().SetInt(p)
		row.AddCell().SetInt(counts[p])
		row.AddCell().SetFloat(float64(counts[p]) / float64(total))
		row.AddCell().SetString(v.Labels[p])
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}
	return nil
}

// WriteSweepXLSX saves a bounds-versus-porosity sweep as an xlsx
// workbook with one row per porosity.
func WriteSweepXLSX(points []rockphysics.SweepPoint, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("drp: the bounds sweep is empty")
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("bounds")
	if err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}
	header := sheet.AddRow()
	for _, h := range []string{
		"Porosity", "Rho",
		"KVoigt", "KReuss", "KHill", "GVoigt", "GReuss", "GHill",
		"KHSLower", "KHSUpper", "GHSLower", "GHSUpper",
	} {
		header.AddCell().SetString(h)
	}
	for _, pt := range points {
		row := sheet.AddRow()
		for _, val := range []float64{
			pt.Porosity, pt.Rho,
			pt.VRH.KVoigt, pt.VRH.KReuss, pt.VRH.KHill,
			pt.VRH.GVoigt, pt.VRH.GReuss, pt.VRH.GHill,
			pt.HS.KLower, pt.HS.KUpper, pt.HS.GLower, pt.HS.GUpper,
		} {
			row.AddCell().SetFloat(val)
		}
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}
	return nil
}
