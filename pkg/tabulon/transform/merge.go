package transform

import (
	"fmt"
	"time"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// MergeOptions configures merge and concat.
type MergeOptions struct {
	// Op is merge or concat.
	Op string
	// LeftOn and RightOn name the join columns.
	LeftOn, RightOn string
	// LeftIndex and RightIndex join on the promoted index instead and
	// override LeftOn / RightOn.
	LeftIndex, RightIndex bool
	// How is inner, outer, left or right.
	How string
	// Suffixes disambiguate colliding column names, "_x" and "_y" when
	// empty.
	Suffixes [2]string
}

// Merge joins or concatenates two frames.
func Merge(left, right *frame.Frame, opts MergeOptions) (*frame.Frame, error) {
	switch opts.Op {
	case "concat":
		return concatFrames(left, right)
	case "", "merge":
		return joinFrames(left, right, opts)
	}
	return nil, fmt.Errorf("unknown merge operation %q", opts.Op)
}

func joinFrames(left, right *frame.Frame, opts MergeOptions) (*frame.Frame, error) {
	leftKeys, err := joinKeys(left, opts.LeftOn, opts.LeftIndex)
	if err != nil {
		return nil, err
	}
	rightKeys, err := joinKeys(right, opts.RightOn, opts.RightIndex)
	if err != nil {
		return nil, err
	}

	rightRows := map[string][]int{}
	for i, k := range rightKeys {
		rightRows[k] = append(rightRows[k], i)
	}

	// Row pairs of the result; -1 marks a missing side and becomes NA.
	var leftTake, rightTake []int
	how := opts.How
	if how == "" {
		how = "inner"
	}
	switch how {
	case "inner", "left", "outer":
		for i, k := range leftKeys {
			matches := rightRows[k]
			if len(matches) == 0 {
				if how != "inner" {
					leftTake = append(leftTake, i)
					rightTake = append(rightTake, -1)
				}
				continue
			}
			for _, r := range matches {
				leftTake = append(leftTake, i)
				rightTake = append(rightTake, r)
			}
		}
	case "right":
	default:
		return nil, fmt.Errorf("unknown join %q", how)
	}
	if how == "right" || how == "outer" {
		leftMatched := map[string]bool{}
		for _, k := range leftKeys {
			leftMatched[k] = true
		}
		for i, k := range rightKeys {
			if how == "outer" {
				if leftMatched[k] {
					continue
				}
				leftTake = append(leftTake, -1)
				rightTake = append(rightTake, i)
				continue
			}
			matched := false
			for li, lk := range leftKeys {
				if lk == k {
					leftTake = append(leftTake, li)
					rightTake = append(rightTake, i)
					matched = true
				}
			}
			if !matched {
				leftTake = append(leftTake, -1)
				rightTake = append(rightTake, i)
			}
		}
	}

	suffixes := opts.Suffixes
	if suffixes[0] == "" && suffixes[1] == "" {
		suffixes = [2]string{"_x", "_y"}
	}
	leftNames := columnSet(left.Names())
	rightNames := columnSet(right.Names())

	out := frame.Empty()
	for i := 0; i < left.NumCols(); i++ {
		c := left.Column(i).Take(leftTake)
		if rightNames[c.Name] {
			c.Name += suffixes[0]
		}
		if err := out.AddColumn(c); err != nil {
			return nil, err
		}
	}
	for i := 0; i < right.NumCols(); i++ {
		c := right.Column(i).Take(rightTake)
		if leftNames[c.Name] {
			c.Name += suffixes[1]
		}
		if err := out.AddColumn(c); err != nil {
			return nil, err
		}
	}
	out.DedupNames()
	return out, nil
}

func joinKeys(f *frame.Frame, on string, useIndex bool) ([]string, error) {
	if useIndex {
		idx := f.Index()
		if idx == nil {
			keys := make([]string, f.NumRows())
			for i := range keys {
				keys[i] = fmt.Sprintf("%d", i)
			}
			return keys, nil
		}
		keys := make([]string, idx.Len())
		for i := range keys {
			keys[i] = idx.String(i)
		}
		return keys, nil
	}
	c, ok := f.ColumnByName(on)
	if !ok {
		return nil, fmt.Errorf("no column %q", on)
	}
	keys := make([]string, c.Len())
	for i := range keys {
		keys[i] = c.String(i)
	}
	return keys, nil
}

// concatFrames stacks two frames vertically. Columns are matched by
// name; a column present on only one side is NA-filled on the other.
func concatFrames(left, right *frame.Frame) (*frame.Frame, error) {
	var order []string
	seen := map[string]bool{}
	for _, n := range left.Names() {
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
		}
	}
	for _, n := range right.Names() {
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
		}
	}

	out := frame.Empty()
	for _, name := range order {
		lc, lok := left.ColumnByName(name)
		rc, rok := right.ColumnByName(name)
		switch {
		case lok && rok:
			if err := out.AddColumn(appendColumns(lc, rc)); err != nil {
				return nil, err
			}
		case lok:
			if err := out.AddColumn(appendColumns(lc, naLike(lc, right.NumRows()))); err != nil {
				return nil, err
			}
		default:
			if err := out.AddColumn(appendColumns(naLike(rc, left.NumRows()), rc)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// naLike builds an all-NA column of n rows with c's dtype and name.
func naLike(c *frame.Column, n int) *frame.Column {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = -1
	}
	out := c.Take(rows)
	return &out
}

// appendColumns concatenates b after a, falling back to strings when
// the dtypes disagree.
func appendColumns(a, b *frame.Column) frame.Column {
	na, nb := a.Len(), b.Len()
	n := na + nb
	at := func(i int) (*frame.Column, int) {
		if i < na {
			return a, i
		}
		return b, i - na
	}
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		c, j := at(i)
		valid[i] = !c.IsNA(j)
	}

	if a.DType() == b.DType() {
		switch a.DType() {
		case frame.Int:
			vals := make([]int64, n)
			for i := 0; i < n; i++ {
				c, j := at(i)
				vals[i], _ = c.Int(j)
			}
			return frame.NewIntColumn(a.Name, vals, valid)
		case frame.Float:
			vals := make([]float64, n)
			for i := 0; i < n; i++ {
				c, j := at(i)
				vals[i], _ = c.Float(j)
			}
			return frame.NewFloatColumn(a.Name, vals, valid)
		case frame.Bool:
			vals := make([]bool, n)
			for i := 0; i < n; i++ {
				c, j := at(i)
				if v, ok := c.Value(j).(bool); ok {
					vals[i] = v
				}
			}
			return frame.NewBoolColumn(a.Name, vals, valid)
		case frame.Time:
			vals := make([]time.Time, n)
			for i := 0; i < n; i++ {
				c, j := at(i)
				vals[i], _ = c.Time(j)
			}
			return frame.NewTimeColumn(a.Name, vals, valid)
		}
	}

	vals := make([]string, n)
	for i := 0; i < n; i++ {
		c, j := at(i)
		if valid[i] {
			vals[i] = c.String(j)
		}
	}
	return frame.NewStringColumn(a.Name, vals, valid)
}

// FrameParam fetches a frame-valued parameter, used by merge to pass
// the other sheet's frame through the params map.
func (p Params) FrameParam(key string) *frame.Frame {
	if v, ok := p[key].(*frame.Frame); ok {
		return v
	}
	return nil
}

func mergeEntry() Transform {
	return Transform{
		Name: "merge",
		Params: []ParamSpec{
			{Name: "op", Kind: KindChoice, Choices: []string{"merge", "concat"}, Default: "merge"},
			{Name: "left-on", Kind: KindString, Default: ""},
			{Name: "right-on", Kind: KindString, Default: ""},
			{Name: "left-index", Kind: KindBool, Default: false},
			{Name: "right-index", Kind: KindBool, Default: false},
			{Name: "how", Kind: KindChoice, Choices: []string{"inner", "outer", "left", "right"}, Default: "inner"},
			{Name: "suffix-left", Kind: KindString, Default: "_x"},
			{Name: "suffix-right", Kind: KindString, Default: "_y"},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			other := p.FrameParam("other")
			if other == nil {
				return nil, fmt.Errorf("merge needs a second frame")
			}
			return Merge(f, other, MergeOptions{
				Op:         p.String("op", "merge"),
				LeftOn:     p.String("left-on", ""),
				RightOn:    p.String("right-on", ""),
				LeftIndex:  p.Bool("left-index", false),
				RightIndex: p.Bool("right-index", false),
				How:        p.String("how", "inner"),
				Suffixes:   [2]string{p.String("suffix-left", "_x"), p.String("suffix-right", "_y")},
			})
		},
	}
}
