package command

import (
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			// opening the store applies the embedded migrations
			store, err := openStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer closeStore(store, &runErr)

			e.logger.WithField("storage", e.cfg.StorageDriver).Info("all migrations executed successfully")
			return nil
		},
	}
}

func rehashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rehash-passwords",
		Short: "Replace stored plaintext passwords with bcrypt hashes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			hasher, err := newHasher(e.cfg)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer closeStore(store, &runErr)

			n, err := newAccountService(store, hasher).RehashLegacy(cmd.Context())
			if err != nil {
				return err
			}
			e.logger.WithField("accounts", n).Info("legacy passwords migrated")
			return nil
		},
	}
}
