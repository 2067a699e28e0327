package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
const (
	CodeAllocationFailure = "ALLOCATION_FAILURE"
	CodeOutOfRange        = "OUT_OF_RANGE"
	CodeNotFound          = "NOT_FOUND"
	CodeScriptLoad        = "SCRIPT_LOAD"
	CodeScriptRuntime     = "SCRIPT_RUNTIME"
	CodeTypeMismatch      = "TYPE_MISMATCH"
	CodeInvalidState      = "INVALID_STATE"
	CodeBusy              = "BUSY"
	CodeHandleLeak        = "HANDLE_LEAK"
	CodeCollaborator      = "COLLABORATOR"
)

var enUS = map[Code]string{
	CodeAllocationFailure: "Out of memory while growing {{.Container}}.",
	CodeOutOfRange:        "Index {{.Index}} is out of range.",
	CodeNotFound:          "Command {{.Name}} is not registered.",
	CodeScriptLoad:        "Script {{.Script}} could not be loaded.",
	CodeScriptRuntime:     "Script {{.Script}} failed while running.",
	CodeTypeMismatch:      "Value {{.Name}} has an unsupported type.",
	CodeInvalidState:      "The script host is not ready.",
	CodeBusy:              "The list is being iterated and cannot change.",
	CodeHandleLeak:        "{{.Count}} script values were still held at shutdown.",
	CodeCollaborator:      "{{.Action}} failed.",
}

var deDE = map[Code]string{
	CodeAllocationFailure: "Kein Speicher beim Vergrößern von {{.Container}}.",
	CodeOutOfRange:        "Index {{.Index}} liegt außerhalb des Bereichs.",
	CodeNotFound:          "Befehl {{.Name}} ist nicht registriert.",
	CodeScriptLoad:        "Skript {{.Script}} konnte nicht geladen werden.",
	CodeScriptRuntime:     "Skript {{.Script}} ist bei der Ausführung fehlgeschlagen.",
	CodeTypeMismatch:      "Wert {{.Name}} hat einen nicht unterstützten Typ.",
	CodeInvalidState:      "Der Skript-Host ist nicht bereit.",
	CodeBusy:              "Die Liste wird gerade durchlaufen und kann nicht geändert werden.",
	CodeHandleLeak:        "{{.Count}} Skriptwerte wurden beim Beenden noch gehalten.",
	CodeCollaborator:      "{{.Action}} ist fehlgeschlagen.",
}
