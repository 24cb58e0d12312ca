package cli

func regCommands() {
	//Data and models
	dataCmd.AddCommand(itemCommands(kindData)...)
	modelCmd.AddCommand(itemCommands(kindModel)...)

	//Chain
	chainCmd.AddCommand(chain_mineCmd)
	chainCmd.AddCommand(chain_validateCmd)
	chainCmd.AddCommand(chain_infoCmd)
	chainCmd.AddCommand(chain_blockCmd)
	chainCmd.AddCommand(chain_pendingCmd)
	chainCmd.AddCommand(chain_transferCmd)

	//CAS
	casCmd.AddCommand(cas_pinCmd)
	casCmd.AddCommand(cas_unpinCmd)
	casCmd.AddCommand(cas_pinsCmd)
	casCmd.AddCommand(cas_cleanupCmd)

	//Root
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(casCmd)
}
