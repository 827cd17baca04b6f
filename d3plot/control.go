package d3plot

import (
	"fmt"
	"strings"

	"github.com/elliotnunn/dynareadout/internal/d3buffer"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// ControlData is the fixed-layout header block described in spec.md §6.1,
// plus the fields derived from it in spec.md §4.5.
type ControlData struct {
	Title   string
	Runtime int64

	NDIM       int64
	origNDIM   int64
	NUMNP      int64
	ICODE      int64
	NGLBV      int64
	IT, IU, IV, IA int64

	NEL8     int64
	NUMMAT8  int64
	NUMDS    int64
	NUMST    int64
	NV3D     int64
	NEL2     int64
	NUMMAT2  int64
	NV1D     int64
	NEL4     int64
	NUMMAT4  int64
	NV2D     int64
	NEIPH    int64
	NEIPS    int64
	MAXINT   int64
	NMSPH    int64
	NGPSPH   int64
	NARBS    int64
	NELT     int64
	NUMMATT  int64
	NV3DT    int64
	IOSHL    [4]int64
	IALEMAT  int64
	NCFDV1   int64
	NCFDV2   int64
	NADAPT   int64
	NMMAT    int64
	NUMFLUID int64
	INN      int64
	NPEFG    int64
	NEL48    int64
	IDTDT    int64
	EXTRA    int64
	NEL20    int64
	NT3D     int64

	MATTYP                    int64
	ElementConnectivityPacked bool
	MDLOPT                    int64
	ISTRN                     int64

	// IDTDT digit flags (spec.md §4.5 "IDTDT digits").
	NodeDTDTWritten          bool
	ResidualForcesWritten    bool
	PlasticStrainTensor      bool
	ThermalStrainTensor      bool
	ISTRNOverride            int64
}

// readControlData consumes the title, runtime, and fixed control-data
// vector from b's current cursor (word 0), applying every derivation in
// spec.md §4.5.
func readControlData(b *d3buffer.Buffer) (*ControlData, error) {
	titleWords, err := b.Seq(10)
	if err != nil {
		return nil, err
	}
	cd := &ControlData{Title: strings.TrimRight(string(titleWords), "\x00")}

	runtime, err := b.ReadIntSeq()
	if err != nil {
		return nil, err
	}
	cd.Runtime = runtime

	fileType, err := b.ReadIntSeq()
	if err != nil {
		return nil, err
	}
	if fileType != 1 {
		return nil, fmt.Errorf("%w: FILETYPE %d is not a d3plot file", rerror.ErrFormatReject, fileType)
	}

	if _, err := b.SeqInts(3); err != nil { // source/release/version, opaque
		return nil, err
	}

	fields := []*int64{
		&cd.NDIM, &cd.NUMNP, &cd.ICODE, &cd.NGLBV, &cd.IT, &cd.IU, &cd.IV, &cd.IA,
		&cd.NEL8, &cd.NUMMAT8, &cd.NUMDS, &cd.NUMST, &cd.NV3D,
		&cd.NEL2, &cd.NUMMAT2, &cd.NV1D,
		&cd.NEL4, &cd.NUMMAT4, &cd.NV2D,
		&cd.NEIPH, &cd.NEIPS, &cd.MAXINT, &cd.NMSPH, &cd.NGPSPH, &cd.NARBS,
		&cd.NELT, &cd.NUMMATT, &cd.NV3DT,
		&cd.IOSHL[0], &cd.IOSHL[1], &cd.IOSHL[2], &cd.IOSHL[3],
		&cd.IALEMAT, &cd.NCFDV1, &cd.NCFDV2, &cd.NADAPT, &cd.NMMAT, &cd.NUMFLUID,
		&cd.INN, &cd.NPEFG, &cd.NEL48, &cd.IDTDT, &cd.EXTRA,
	}
	for _, f := range fields {
		v, err := b.ReadIntSeq()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if _, err := b.SeqInts(6); err != nil { // reserved words 58..63
		return nil, err
	}

	if cd.EXTRA > 0 {
		nel20, err := b.ReadIntSeq()
		if err != nil {
			return nil, err
		}
		nt3d, err := b.ReadIntSeq()
		if err != nil {
			return nil, err
		}
		cd.NEL20, cd.NT3D = nel20, nt3d
	}

	cd.origNDIM = cd.NDIM
	applyDerivations(cd)

	if err := rejectUnsupported(cd); err != nil {
		return nil, err
	}
	return cd, nil
}

// applyDerivations implements spec.md §4.5's MATTYP/NDIM reshape, IOSHL
// normalization, IDTDT digit decode, MAXINT/MDLOPT, and ISTRN derivation.
func applyDerivations(cd *ControlData) {
	switch cd.NDIM {
	case 5, 7:
		cd.MATTYP = 1
		cd.NDIM = 3
	default:
		cd.MATTYP = 0
		switch cd.NDIM {
		case 3:
			cd.ElementConnectivityPacked = true
		case 4:
			cd.NDIM = 3
			cd.ElementConnectivityPacked = false
		}
	}

	for i := range cd.IOSHL {
		if cd.IOSHL[i] == 1000 {
			cd.IOSHL[i] = 1
		}
	}

	d := cd.IDTDT
	cd.NodeDTDTWritten = d%10 != 0
	cd.ResidualForcesWritten = (d/10)%10 != 0
	cd.PlasticStrainTensor = (d/100)%10 != 0
	cd.ThermalStrainTensor = (d/1000)%10 != 0
	cd.ISTRNOverride = (d / 10000) % 10

	switch {
	case cd.MAXINT >= 0:
		cd.MDLOPT = 0
	case cd.MAXINT < -10000:
		cd.MDLOPT = 2
		cd.MAXINT = -cd.MAXINT - 10000
	default:
		cd.MDLOPT = 1
		cd.MAXINT = -cd.MAXINT
	}

	if cd.PlasticStrainTensor || cd.ThermalStrainTensor {
		cd.ISTRN = cd.ISTRNOverride
	}
	if d < 100 {
		threshold := cd.MAXINT*(6*cd.IOSHL[0]+cd.IOSHL[1]+cd.NEIPS) + 8*cd.IOSHL[2] + 4*cd.IOSHL[3] + 1
		if cd.NV2D > threshold {
			cd.ISTRN = 1
		} else {
			cd.ISTRN = 0
		}
		if cd.NELT > 0 {
			neltThreshold := cd.MAXINT*(6*cd.IOSHL[0]+cd.IOSHL[1]+cd.NEIPS) + 1
			if cd.NV3DT > neltThreshold {
				cd.ISTRN = 1
			} else {
				cd.ISTRN = 0
			}
		}
	}
}

// rejectUnsupported enforces spec.md §4.5 "Unsupported features" and the
// Non-goals named in spec.md §1 (MATTYP remapping, SPH/particle data,
// the EXTRA DATA TYPES family).
func rejectUnsupported(cd *ControlData) error {
	switch {
	case cd.ICODE != 2 && cd.ICODE != 6:
		return fmt.Errorf("%w: ICODE %d is not 2 or 6", rerror.ErrFormatReject, cd.ICODE)
	case cd.MATTYP != 0:
		return fmt.Errorf("%w: MATTYP remapping is not supported", rerror.ErrFormatReject)
	case cd.IALEMAT != 0:
		return fmt.Errorf("%w: ALE materials are not supported", rerror.ErrFormatReject)
	case cd.NMSPH > 0:
		return fmt.Errorf("%w: SPH/particle data is not supported", rerror.ErrFormatReject)
	case cd.NPEFG > 0:
		return fmt.Errorf("%w: airbag particle data is not supported", rerror.ErrFormatReject)
	case cd.origNDIM > 5:
		return fmt.Errorf("%w: NDIM %d is not supported", rerror.ErrFormatReject, cd.origNDIM)
	case cd.NCFDV1 == 67108864:
		return fmt.Errorf("%w: EXTRA DATA TYPES family is not supported", rerror.ErrFormatReject)
	case cd.NDIM != 3:
		return fmt.Errorf("%w: NDIM %d did not reduce to 3", rerror.ErrFormatReject, cd.NDIM)
	}
	return nil
}
