package main

import "github.com/golovatskygroup/cloudera-ml-mcp/cmd/cloudera-ml-mcp/cmd"

func main() {
	cmd.Execute()
}
