package d3plot

import (
	"fmt"

	"github.com/elliotnunn/dynareadout/internal/d3buffer"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// UserIDs holds the optional user-numbering tables controlled by NARBS
// (spec.md §4.5 "User IDs section"). Present only when NARBS != 0.
type UserIDs struct {
	NSORT, NSRH, NSRB, NSRS, NSRT                   int64
	NSORTD, NSRHD, NSRBD, NSRSD, NSRTD              int64
	NSRMA, NSRMU, NSRMP, NSRTM, NUMRBS, NMMAT        int64

	NodeIDs       []int64
	SolidIDs      []int64
	BeamIDs       []int64
	ShellIDs      []int64
	ThickShellIDs []int64
	MaterialOrder []int64
	NSRMUArray    []int64
	NSRMPArray    []int64
}

func readUserIDs(b *d3buffer.Buffer, cd *ControlData) (*UserIDs, error) {
	if cd.NARBS == 0 {
		return &UserIDs{}, nil
	}

	u := &UserIDs{}
	head := []*int64{&u.NSORT, &u.NSRH, &u.NSRB, &u.NSRS, &u.NSRT, &u.NSORTD, &u.NSRHD, &u.NSRBD, &u.NSRSD, &u.NSRTD}
	for _, f := range head {
		v, err := b.ReadIntSeq()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if u.NSORT < 0 {
		extra := []*int64{&u.NSRMA, &u.NSRMU, &u.NSRMP, &u.NSRTM, &u.NUMRBS, &u.NMMAT}
		for _, f := range extra {
			v, err := b.ReadIntSeq()
			if err != nil {
				return nil, err
			}
			*f = v
		}
	}
	if u.NSORT > 0 {
		return nil, fmt.Errorf("%w: positive NSORT is not supported", rerror.ErrFormatReject)
	}

	var err error
	if u.NodeIDs, err = b.SeqInts(int(u.NSORTD)); err != nil {
		return nil, err
	}
	if u.SolidIDs, err = b.SeqInts(int(u.NSRHD)); err != nil {
		return nil, err
	}
	if u.BeamIDs, err = b.SeqInts(int(u.NSRBD)); err != nil {
		return nil, err
	}
	if u.ShellIDs, err = b.SeqInts(int(u.NSRSD)); err != nil {
		return nil, err
	}
	if u.ThickShellIDs, err = b.SeqInts(int(u.NSRTD)); err != nil {
		return nil, err
	}
	if u.NSORT < 0 {
		if u.MaterialOrder, err = b.SeqInts(int(u.NMMAT)); err != nil {
			return nil, err
		}
		if u.NSRMUArray, err = b.SeqInts(int(u.NMMAT)); err != nil {
			return nil, err
		}
		if u.NSRMPArray, err = b.SeqInts(int(u.NMMAT)); err != nil {
			return nil, err
		}
	}
	return u, nil
}
