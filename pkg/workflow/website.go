package workflow

import (
	"context"
	"fmt"

	"devbox_provision/pkg/task"
)

// ConfigureWebsite points the apache document root at the locally built site,
// unless the document root is already a symbolic link.
func (w *Workflow) ConfigureWebsite(ctx context.Context, p WebsiteParams) error {
	return guarded(ctx, w.isLink(p.DocumentRoot), p.DocumentRoot, func() error {
		steps := []string{
			"sed -i " + task.Quote("s/AllowOverride None/AllowOverride All/g") + " " + task.Quote(p.ApacheConfig),
			"sed -i " + task.Quote(fmt.Sprintf("s|%s|%s|g", p.CGIDirectory, p.CGITarget)) + " " + task.Quote(p.SiteConfig),
			"rm -rf " + task.Quote(p.DocumentRoot),
			"ln -fs " + task.Quote(p.LocalDirectory) + " " + task.Quote(p.DocumentRoot),
			"a2enmod rewrite",
			"service apache2 restart",
		}
		for _, cmd := range steps {
			if err := w.sudo(ctx, cmd); err != nil {
				return fmt.Errorf("configuring website: %w", err)
			}
		}
		return nil
	})
}
