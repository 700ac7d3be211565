package commands

const (
	_etc = "/usr/local/etc/com.github.uhppoted/eo-backup"
	_var = "/usr/local/var/com.github.uhppoted/eo-backup"

	DEFAULT_CONFIG      = _etc + "/eo-backup.yaml"
	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
