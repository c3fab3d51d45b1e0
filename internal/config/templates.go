package config

import (
	"fmt"
	"os"
)

// WriteTemplate drops a starter config next to the operator so they do not
// have to remember the schema.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(toolTemplate), 0o600)
}

const toolTemplate = `port = 5000
session_name = "jupyter"
notebook_dir = ""
server_config_path = "~/.jupyter/jupyter_notebook_config.py"
status_addr = ""
build_root = "/usr/local/src/gpuprep"

[runner]
mode = "local"
# mode = "ssh"
# host = "gpu-node-1"
# user = "ubuntu"
# key_path = "~/.ssh/id_ed25519"

[[steps]]
name = "cuda-stack"
kind = "apt_install"
packages = ["cuda-toolkit-12-4", "nvidia-driver-550"]

[[steps]]
name = "python-numerics"
kind = "pip_upgrade"
packages = ["numpy", "scipy", "pandas", "numba"]

[[steps]]
name = "openblas"
kind = "source_build"
repo = "https://github.com/OpenMathLib/OpenBLAS"
build_commands = ["make -j$(nproc)", "make install PREFIX=/usr/local"]

[[steps]]
name = "os-upgrade"
kind = "apt_upgrade"
`
