package d3plot

import "testing"

func TestApplyDerivationsNDIMReshape(t *testing.T) {
	cases := []struct {
		name           string
		ndim           int64
		wantNDIM       int64
		wantMATTYP     int64
		wantPacked     bool
	}{
		{"plain 3d", 3, 3, 0, true},
		{"plain 4d unpacked", 4, 3, 0, false},
		{"mattyp 5", 5, 3, 1, false},
		{"mattyp 7", 7, 3, 1, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cd := &ControlData{NDIM: c.ndim}
			applyDerivations(cd)
			if cd.NDIM != c.wantNDIM {
				t.Errorf("NDIM = %d, want %d", cd.NDIM, c.wantNDIM)
			}
			if cd.MATTYP != c.wantMATTYP {
				t.Errorf("MATTYP = %d, want %d", cd.MATTYP, c.wantMATTYP)
			}
			if cd.ElementConnectivityPacked != c.wantPacked {
				t.Errorf("ElementConnectivityPacked = %v, want %v", cd.ElementConnectivityPacked, c.wantPacked)
			}
		})
	}
}

func TestApplyDerivationsIOSHLNormalization(t *testing.T) {
	cd := &ControlData{NDIM: 3, IOSHL: [4]int64{1000, 1, 1000, 0}}
	applyDerivations(cd)
	want := [4]int64{1, 1, 1, 0}
	if cd.IOSHL != want {
		t.Errorf("IOSHL = %v, want %v", cd.IOSHL, want)
	}
}

func TestApplyDerivationsIDTDTDigits(t *testing.T) {
	// digits (from least to most significant): node dt/dt, residual forces,
	// plastic strain tensor, thermal strain tensor, istrn override.
	cd := &ControlData{NDIM: 3, IDTDT: 11111}
	applyDerivations(cd)
	if !cd.NodeDTDTWritten {
		t.Error("NodeDTDTWritten = false, want true")
	}
	if !cd.ResidualForcesWritten {
		t.Error("ResidualForcesWritten = false, want true")
	}
	if !cd.PlasticStrainTensor {
		t.Error("PlasticStrainTensor = false, want true")
	}
	if !cd.ThermalStrainTensor {
		t.Error("ThermalStrainTensor = false, want true")
	}
	if cd.ISTRNOverride != 1 {
		t.Errorf("ISTRNOverride = %d, want 1", cd.ISTRNOverride)
	}
	if cd.ISTRN != cd.ISTRNOverride {
		t.Errorf("ISTRN = %d, want override %d", cd.ISTRN, cd.ISTRNOverride)
	}
}

// TestApplyDerivationsMAXINT covers spec.md §8 scenario 5: the three MAXINT
// branches (>=0, negative but >= -10000, and < -10000).
func TestApplyDerivationsMAXINT(t *testing.T) {
	cases := []struct {
		name        string
		maxint      int64
		wantMDLOPT  int64
		wantMAXINT  int64
	}{
		{"non-negative", 5, 0, 5},
		{"plain negative", -3, 1, 3},
		{"below -10000", -10007, 2, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cd := &ControlData{NDIM: 3, MAXINT: c.maxint}
			applyDerivations(cd)
			if cd.MDLOPT != c.wantMDLOPT {
				t.Errorf("MDLOPT = %d, want %d", cd.MDLOPT, c.wantMDLOPT)
			}
			if cd.MAXINT != c.wantMAXINT {
				t.Errorf("MAXINT = %d, want %d", cd.MAXINT, c.wantMAXINT)
			}
		})
	}
}

func TestApplyDerivationsISTRNFromThreshold(t *testing.T) {
	// No plastic/thermal strain tensor flags set: ISTRN falls back to the
	// NV2D-vs-threshold comparison.
	cd := &ControlData{NDIM: 3, MAXINT: 3, IOSHL: [4]int64{1, 1, 1, 1}, NEIPS: 0}
	applyDerivations(cd)
	threshold := cd.MAXINT*(6*cd.IOSHL[0]+cd.IOSHL[1]+cd.NEIPS) + 8*cd.IOSHL[2] + 4*cd.IOSHL[3] + 1
	cd.NV2D = threshold + 1
	applyDerivations(cd)
	if cd.ISTRN != 1 {
		t.Errorf("ISTRN = %d, want 1 when NV2D exceeds threshold", cd.ISTRN)
	}

	cd2 := &ControlData{NDIM: 3, MAXINT: 3, IOSHL: [4]int64{1, 1, 1, 1}, NV2D: 1}
	applyDerivations(cd2)
	if cd2.ISTRN != 0 {
		t.Errorf("ISTRN = %d, want 0 when NV2D is below threshold", cd2.ISTRN)
	}
}

// TestApplyDerivationsNELTThreshold checks that the thick-shell (NELT>0)
// branch uses its own threshold, without the 8*IOSHL[2]+4*IOSHL[3] terms
// that the NV2D threshold includes.
func TestApplyDerivationsNELTThreshold(t *testing.T) {
	cd := &ControlData{NDIM: 3, MAXINT: 3, IOSHL: [4]int64{1, 1, 1, 1}, NEIPS: 0, NELT: 1}
	neltThreshold := cd.MAXINT*(6*cd.IOSHL[0]+cd.IOSHL[1]+cd.NEIPS) + 1
	cd.NV3DT = neltThreshold + 1
	applyDerivations(cd)
	if cd.ISTRN != 1 {
		t.Errorf("ISTRN = %d, want 1 when NV3DT exceeds the NELT threshold", cd.ISTRN)
	}

	cd2 := &ControlData{NDIM: 3, MAXINT: 3, IOSHL: [4]int64{1, 1, 1, 1}, NEIPS: 0, NELT: 1}
	cd2.NV3DT = neltThreshold
	applyDerivations(cd2)
	if cd2.ISTRN != 0 {
		t.Errorf("ISTRN = %d, want 0 when NV3DT does not exceed the NELT threshold", cd2.ISTRN)
	}
}

// TestApplyDerivationsISTRNSkippedWhenIDTDTAtLeast100 mirrors the original
// d3plot.c guard (idtdt < 100): when the plastic/thermal strain tensor
// digits are both zero but IDTDT is still >= 100 (e.g. only the
// ten-thousands digit is set), ISTRN must keep its zero value rather than
// run the NV2D/NV3DT threshold comparison.
func TestApplyDerivationsISTRNSkippedWhenIDTDTAtLeast100(t *testing.T) {
	cd := &ControlData{NDIM: 3, MAXINT: 3, IOSHL: [4]int64{1, 1, 1, 1}, IDTDT: 10000, NV2D: 1000000}
	applyDerivations(cd)
	if cd.PlasticStrainTensor || cd.ThermalStrainTensor {
		t.Fatalf("test setup invalid: expected both strain-tensor flags false for IDTDT=10000")
	}
	if cd.ISTRN != 0 {
		t.Errorf("ISTRN = %d, want 0 (threshold computation must be skipped when IDTDT >= 100)", cd.ISTRN)
	}
}

func TestRejectUnsupported(t *testing.T) {
	base := func() *ControlData { return &ControlData{NDIM: 3, ICODE: 2} }

	cases := []struct {
		name    string
		mutate  func(*ControlData)
		wantErr bool
	}{
		{"valid", func(cd *ControlData) {}, false},
		{"bad icode", func(cd *ControlData) { cd.ICODE = 1 }, true},
		{"mattyp remap", func(cd *ControlData) { cd.MATTYP = 1 }, true},
		{"ale materials", func(cd *ControlData) { cd.IALEMAT = 1 }, true},
		{"sph data", func(cd *ControlData) { cd.NMSPH = 1 }, true},
		{"airbag particles", func(cd *ControlData) { cd.NPEFG = 1 }, true},
		{"ndim too large", func(cd *ControlData) { cd.origNDIM = 6 }, true},
		{"extra data types", func(cd *ControlData) { cd.NCFDV1 = 67108864 }, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cd := base()
			c.mutate(cd)
			err := rejectUnsupported(cd)
			if (err != nil) != c.wantErr {
				t.Errorf("rejectUnsupported() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}
