// Command pagechat scrapes web pages and answers questions about them.
package main

import "github.com/diogo/pagechat/internal/commands"

func main() {
	commands.Execute()
}
