// crmctl tareas administrativas del CRM: migraciones y alta de cuentas master.
//
// Uso:
//
//	crmctl migrate up
//	crmctl migrate status
//	crmctl provision-master --email ana@empresa.com --password ******** --name "Ana"
package main

import "os"

func main() {
	os.Exit(execute())
}
