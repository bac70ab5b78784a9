package hcp

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli"
)

func TestLayout(t *testing.T) {
	cfg := Config{DataRoot: "/data/HCP"}
	run := Run{Subject: "100307", Phase: 2, Direction: "RL"}

	for _, tt := range []struct {
		got, want string
	}{
		{run.Name(), "rfMRI_REST2_RL"},
		{cfg.DtSeries(run), "/data/HCP/100307/100307_3T_rfMRI_REST_fix/100307/MNINonLinear/Results/rfMRI_REST2_RL/rfMRI_REST2_RL_Atlas_hp2000_clean.dtseries.nii"},
		{cfg.Downsampled(run), "/data/HCP/100307/100307_3T_rfMRI_REST_fix/100307/MNINonLinear/Results/rfMRI_REST2_RL/fMRI_downsampled_3mm.nii.gz"},
		{cfg.Warp("100307"), "/data/HCP/100307/100307_3T_Structural_preproc/100307/MNINonLinear/xfms/standard2acpc_dc.nii.gz"},
		{cfg.Reference("100307"), "/data/HCP/100307/T1/T1_3mm.nii.gz"},
		{cfg.Coordinates("100307", Left), "/data/HCP/100307/probtrackx_L_omatrix2/coords_for_fdt_matrix2"},
		{cfg.VoxelTable(run, Right), "/data/HCP/100307/fMRI/phase2_RL/voxel_time_series_R.csv"},
		{cfg.ROITable(run, Left), "/data/HCP/100307/fMRI/phase2_RL/roi_time_series_L.csv"},
		{cfg.FixZip("100307"), "/data/HCP/100307/100307_3T_rfMRI_REST_fix.zip"},
	} {
		if tt.got != tt.want {
			t.Errorf("got %s, want %s", tt.got, tt.want)
		}
	}

	cfg.OutputRoot = "/scratch/out"
	if got, want := cfg.ConnectivityTable(run, Left), "/scratch/out/100307/fMRI/phase2_RL/roi_connectivity_L.csv"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRuns(t *testing.T) {
	want := []Run{
		{"100307", 1, "LR"},
		{"100307", 2, "LR"},
		{"100307", 1, "RL"},
		{"100307", 2, "RL"},
	}

	if diff := cmp.Diff(want, Runs("100307")); diff != "" {
		t.Errorf("Runs() mismatch (-want +got):\n%s", diff)
	}
}

func TestNumWorkers(t *testing.T) {
	if got := (Config{Workers: 5}).NumWorkers(3); got != 3 {
		t.Errorf("NumWorkers = %d, want 3", got)
	}
	if got := (Config{Workers: 2}).NumWorkers(10); got != 2 {
		t.Errorf("NumWorkers = %d, want 2", got)
	}
	if got := (Config{}).NumWorkers(0); got != 1 {
		t.Errorf("NumWorkers = %d, want 1", got)
	}

	// unset Workers sizes the pool like calc.Init(0)
	cpus := runtime.NumCPU()
	if got := (Config{}).NumWorkers(cpus + 4); got != cpus {
		t.Errorf("NumWorkers = %d, want %d", got, cpus)
	}
	if got := (Config{Workers: -1}).NumWorkers(1); got != 1 {
		t.Errorf("NumWorkers = %d, want 1", got)
	}
}

func TestFSL(t *testing.T) {
	if got := (Config{}).FSL("flirt"); got != "flirt" {
		t.Errorf("FSL() = %s", got)
	}
	if got := (Config{FSLDir: "/usr/local/fsl"}).FSL("flirt"); got != "/usr/local/fsl/bin/flirt" {
		t.Errorf("FSL() = %s", got)
	}
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "100610", "100307", "100408")
	if err := os.WriteFile(filepath.Join(root, "sub_ids"), []byte("100307\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Discover(Config{DataRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"100307", "100408", "100610"}, got); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}

	got, err = Discover(Config{DataRoot: root, Subjects: []string{"100610", "999999", "100307", "100610"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"100307", "100610"}, got); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); !errors.Is(err, ErrNoDataRoot) {
		t.Errorf("got %v, want ErrNoDataRoot", err)
	}
	if err := (Config{DataRoot: t.TempDir()}).Validate(); err != nil {
		t.Error(err)
	}
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		k := k
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func TestConfigFromContext(t *testing.T) {
	unsetenv(t, "HCP_DATA", "HCP_OUTPUT", "WB_COMMAND", "FSLDIR")
	root := t.TempDir()
	ids := filepath.Join(root, "sub_ids")
	if err := os.WriteFile(ids, []byte("100307\n100408\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var cfg Config
	app := cli.NewApp()
	app.Flags = append(append(append([]cli.Flag{}, Flags...), ToolFlags...), TableFlags...)
	app.Action = func(c *cli.Context) error {
		var err error
		cfg, err = ConfigFromContext(c)
		return err
	}

	err := app.Run([]string{"cortexts", "--data", root, "--subjects", ids, "--workers", "3", "--fsl-dir", "/opt/fsl", "--npy", "--keep"})
	if err != nil {
		t.Fatal(err)
	}

	want := Config{
		DataRoot:         root,
		WbCommand:        "wb_command",
		FSLDir:           "/opt/fsl",
		Workers:          3,
		Subjects:         []string{"100307", "100408"},
		KeepIntermediate: true,
		Npy:              true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("ConfigFromContext() mismatch (-want +got):\n%s", diff)
	}
}
