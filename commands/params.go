package commands

import (
	"fmt"

	"github.com/josephlewis42/iocsh/core/shell"
)

// envParam is a well known configuration variable and its default.
type envParam struct {
	Name    string
	Default string
}

var envParams = []envParam{
	{"EPICS_CA_ADDR_LIST", ""},
	{"EPICS_CA_CONN_TMO", "30.0"},
	{"EPICS_CA_AUTO_ADDR_LIST", "YES"},
	{"EPICS_CA_REPEATER_PORT", "5065"},
	{"EPICS_CA_SERVER_PORT", "5064"},
	{"EPICS_CA_MAX_ARRAY_BYTES", "16384"},
	{"EPICS_CA_AUTO_ARRAY_BYTES", "YES"},
	{"EPICS_CA_MAX_SEARCH_PERIOD", "300"},
	{"EPICS_CA_NAME_SERVERS", ""},
	{"EPICS_CA_MCAST_TTL", "1"},
	{"EPICS_CAS_INTF_ADDR_LIST", ""},
	{"EPICS_CAS_IGNORE_ADDR_LIST", ""},
	{"EPICS_CAS_AUTO_BEACON_ADDR_LIST", ""},
	{"EPICS_CAS_BEACON_ADDR_LIST", ""},
	{"EPICS_CAS_SERVER_PORT", ""},
	{"EPICS_CAS_BEACON_PERIOD", ""},
	{"EPICS_CAS_BEACON_PORT", ""},
	{"EPICS_BUILD_COMPILER_CLASS", ""},
	{"EPICS_BUILD_OS_CLASS", ""},
	{"EPICS_BUILD_TARGET_ARCH", ""},
	{"EPICS_TZ", "CST6CDT,M3.2.0/2,M11.1.0/2"},
	{"EPICS_TS_NTP_INET", ""},
	{"EPICS_IOC_IGNORE_SERVERS", ""},
	{"EPICS_IOC_LOG_PORT", "7004"},
	{"EPICS_IOC_LOG_INET", ""},
	{"EPICS_IOC_LOG_FILE_LIMIT", "1000000"},
	{"EPICS_IOC_LOG_FILE_NAME", ""},
	{"EPICS_IOC_LOG_FILE_COMMAND", ""},
	{"EPICS_CMD_PROTO_PORT", ""},
	{"EPICS_AR_PORT", "7002"},
}

// EpicsPrtEnvParams prints the configuration variables, falling back to
// their defaults. Empty values are undefined.
func EpicsPrtEnvParams(s *shell.Shell, args shell.Args) error {
	for _, param := range envParams {
		value, ok := s.Env().LookupEnv(param.Name)
		if !ok {
			value = param.Default
		}

		if value == "" {
			fmt.Fprintf(s.Stdout(), "%s is undefined\n", param.Name)
		} else {
			fmt.Fprintf(s.Stdout(), "%s: %s\n", param.Name, value)
		}
	}
	return nil
}

func init() {
	addCmd(shell.FuncDef{Name: "epicsParamShow"}, EpicsPrtEnvParams)
	addCmd(shell.FuncDef{Name: "epicsPrtEnvParams"}, EpicsPrtEnvParams)
}
