package commands

const (
	_etc = "/usr/local/etc/eo-backup"
	_var = "/usr/local/var/eo-backup"

	DEFAULT_CONFIG      = _etc + "/eo-backup.yaml"
	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
