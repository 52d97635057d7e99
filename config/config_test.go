package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Covariance.NBin <= 0 {
		t.Errorf("expected positive NBin, got %d", cfg.Covariance.NBin)
	}
	if cfg.Derived.NBinsTotal != cfg.Covariance.NBin*cfg.Covariance.MBin {
		t.Errorf("Derived.NBinsTotal = %d, want %d", cfg.Derived.NBinsTotal, cfg.Covariance.NBin*cfg.Covariance.MBin)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CovarianceConfig
		wantErr bool
	}{
		{"valid", CovarianceConfig{NThread: 2, N2: 1, N3: 1, N4: 1, NBin: 2, MBin: 1, Variant: VariantAngular}, false},
		{"zero nthread", CovarianceConfig{NThread: 0, N2: 1, N3: 1, N4: 1, NBin: 2, MBin: 1, Variant: VariantAngular}, true},
		{"zero branching", CovarianceConfig{NThread: 1, N2: 0, N3: 1, N4: 1, NBin: 2, MBin: 1, Variant: VariantAngular}, true},
		{"zero bins", CovarianceConfig{NThread: 1, N2: 1, N3: 1, N4: 1, NBin: 0, MBin: 1, Variant: VariantAngular}, true},
		{"bad variant", CovarianceConfig{NThread: 1, N2: 1, N3: 1, N4: 1, NBin: 2, MBin: 1, Variant: "bogus"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(8)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	global = nil
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when Cfg() called before Init()")
		}
	}()
	Cfg()
}
