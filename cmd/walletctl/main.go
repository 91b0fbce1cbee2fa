// walletctl runs database migrations and issues, inspects and verifies Google Wallet passes
package main

import "github.com/information-sharing-networks/walletpass/internal/cli"

func main() {
	cli.Execute()
}
